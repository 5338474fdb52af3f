package world

// TextureHandle — загруженный ресурс текстуры. Ядро не интерпретирует
// содержимое, оно лишь раздаёт один и тот же handle всем тайлам с
// одинаковым путём.
type TextureHandle struct {
	Path   string
	Width  int
	Height int
	Data   []byte
}

// TextureLoader — коллаборатор, умеющий загружать текстуру по пути.
// Ошибки загрузки не фатальны: тайл остаётся с "запрошенной, но не
// загруженной" текстурой, рендер использует fallback.
type TextureLoader interface {
	LoadFromPath(path string) (*TextureHandle, error)
}
