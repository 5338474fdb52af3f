package level

import "fmt"

// Severity определяет серьёзность диагностики парсера
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String возвращает строковое представление серьёзности
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic — одно сообщение парсера, привязанное к строке файла.
// Ошибка означает, что эффект этой строки пропущен; загрузка в целом
// продолжается.
type Diagnostic struct {
	Line     int
	Severity Severity
	Message  string
}

// String форматирует диагностику в виде "файл:строка: сообщение"
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: %s: %s", d.Line, d.Severity, d.Message)
}

// Result собирает все диагностики одной загрузки уровня, чтобы
// вызывающие и тесты могли проверить их целиком, а не ловить вывод в
// консоль.
type Result struct {
	FilePath    string
	Diagnostics []Diagnostic
}

func (r *Result) errorf(line int, format string, args ...interface{}) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Line:     line,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Result) warnf(line int, format string, args ...interface{}) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Line:     line,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Errors возвращает только диагностики уровня error
func (r *Result) Errors() []Diagnostic {
	var errors []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			errors = append(errors, d)
		}
	}
	return errors
}

// HasErrors возвращает true, если была хотя бы одна ошибка
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
