package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

const (
	snapshotPrefix  = "snapshot:"
	metaSuffix      = ":meta"
	latestKey       = "snapshot:latest"
	snapshotMaxList = 64 // ограничение листинга; старые снапшоты не вычищаются
)

// LevelStore хранит снапшоты уровня (канонический текст формата уровня)
// в BadgerDB. Каждый снапшот получает uuid; ключ "snapshot:latest"
// указывает на последний сохранённый.
type LevelStore struct {
	db      *badger.DB
	dbPath  string
	useGzip bool
	mutex   sync.RWMutex
	isReady bool
}

// SnapshotMeta описывает один сохранённый снапшот
type SnapshotMeta struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Compressed bool      `json:"compressed"`
	RawSize    int       `json:"raw_size"`
}

// NewLevelStore открывает хранилище снапшотов в каталоге dataPath
func NewLevelStore(dataPath string, useGzip bool) (*LevelStore, error) {
	dbPath := filepath.Join(dataPath, "levels")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &LevelStore{
		db:      db,
		dbPath:  dbPath,
		useGzip: useGzip,
		isReady: true,
	}, nil
}

// Close закрывает хранилище
func (ls *LevelStore) Close() error {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	if !ls.isReady {
		return nil
	}

	ls.isReady = false
	return ls.db.Close()
}

// SaveSnapshot сохраняет текст уровня как новый снапшот и возвращает
// его ID. Снапшот становится "latest".
func (ls *LevelStore) SaveSnapshot(levelText []byte) (string, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return "", fmt.Errorf("хранилище не готово")
	}

	id := uuid.NewString()
	meta := SnapshotMeta{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		Compressed: ls.useGzip,
		RawSize:    len(levelText),
	}

	payload := levelText
	if ls.useGzip {
		compressed, err := compressGzip(levelText)
		if err != nil {
			return "", fmt.Errorf("сжатие снапшота: %w", err)
		}
		payload = compressed
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("сериализация метаданных: %w", err)
	}

	err = ls.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(snapshotPrefix+id), payload); err != nil {
			return err
		}
		if err := txn.Set([]byte(snapshotPrefix+id+metaSuffix), metaData); err != nil {
			return err
		}
		return txn.Set([]byte(latestKey), []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("запись снапшота: %w", err)
	}

	return id, nil
}

// LoadSnapshot возвращает текст уровня по ID снапшота
func (ls *LevelStore) LoadSnapshot(id string) ([]byte, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var meta SnapshotMeta
	var payload []byte

	err := ls.db.View(func(txn *badger.Txn) error {
		metaItem, err := txn.Get([]byte(snapshotPrefix + id + metaSuffix))
		if err != nil {
			return err
		}
		if err := metaItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return err
		}

		item, err := txn.Get([]byte(snapshotPrefix + id))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("снапшот %s не найден", id)
	}
	if err != nil {
		return nil, fmt.Errorf("чтение снапшота %s: %w", id, err)
	}

	if meta.Compressed {
		return decompressGzip(payload)
	}
	return payload, nil
}

// LatestID возвращает ID последнего сохранённого снапшота
func (ls *LevelStore) LatestID() (string, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return "", fmt.Errorf("хранилище не готово")
	}

	var id string
	err := ls.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return "", fmt.Errorf("снапшотов ещё нет")
	}
	if err != nil {
		return "", fmt.Errorf("чтение указателя latest: %w", err)
	}
	return id, nil
}

// LoadLatest возвращает текст последнего сохранённого снапшота
func (ls *LevelStore) LoadLatest() ([]byte, error) {
	id, err := ls.LatestID()
	if err != nil {
		return nil, err
	}
	return ls.LoadSnapshot(id)
}

// ListSnapshots возвращает метаданные сохранённых снапшотов
func (ls *LevelStore) ListSnapshots() ([]SnapshotMeta, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var metas []SnapshotMeta
	err := ls.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(snapshotPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(metas) < snapshotMaxList; it.Next() {
			key := string(it.Item().Key())
			if len(key) <= len(metaSuffix) || key[len(key)-len(metaSuffix):] != metaSuffix {
				continue
			}
			var meta SnapshotMeta
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return err
			}
			metas = append(metas, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("листинг снапшотов: %w", err)
	}
	return metas, nil
}

func compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressGzip(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
