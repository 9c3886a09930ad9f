package store

import "github.com/syndtr/goleveldb/leveldb/storage"

func leveldbMemStorage() storage.Storage {
	return storage.NewMemStorage()
}
