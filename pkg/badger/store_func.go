package badger

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound key 不存在
var ErrNotFound = errors.New("badger: key not found")

// loadMaxPendingWrites 恢复备份时允许的最大未完成写入数
const loadMaxPendingWrites = 256

// BadgerTX 事务函数
type BadgerTX func(tx *badger.Txn) error

// TxSet 读写事务
func (e *Engine) TxSet(tx BadgerTX) error {
	return e.db.Update(tx)
}

// TxGet 只读事务
func (e *Engine) TxGet(tx BadgerTX) error {
	return e.db.View(tx)
}

// Set 设置参数
func (e *Engine) Set(key, value []byte) error {
	return e.TxSet(func(tx *badger.Txn) error {
		return tx.Set(key, value)
	})
}

// Get 获取参数, 不存在时返回 ErrNotFound
func (e *Engine) Get(key []byte) ([]byte, error) {
	var value []byte
	err := e.TxGet(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// Del 删除参数, key 不存在时不报错
func (e *Engine) Del(key []byte) error {
	return e.TxSet(func(tx *badger.Txn) error {
		return tx.Delete(key)
	})
}

// Exists 判断key是否存在
func (e *Engine) Exists(key []byte) (bool, error) {
	_, err := e.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ScanFunc 遍历回调, key 和 value 在回调返回后失效
type ScanFunc func(key, value []byte) error

// Scan 按 key 字典序遍历指定前缀的全部键值, prefix 为 nil 时遍历全部
func (e *Engine) Scan(prefix []byte, fn ScanFunc) error {
	return e.TxGet(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				return fn(item.Key(), val)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetKey 获取所有key
// @param prefix 前缀, 为 nil 时返回全部
func (e *Engine) GetKey(prefix []byte) ([][]byte, error) {
	var keys [][]byte

	err := e.TxGet(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // 只获取键，不获取值
		opts.Prefix = prefix

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})

	return keys, err
}

// BadgerBatch 批量写入函数
type BadgerBatch func(*badger.WriteBatch) error

// Batch 批量写入, fn 成功后统一提交
func (e *Engine) Batch(fn BadgerBatch) error {
	wb := e.db.NewWriteBatch()
	defer wb.Cancel()
	if err := fn(wb); err != nil {
		return err
	}
	return wb.Flush()
}

// Backup 全量备份数据库到文件
func (e *Engine) Backup(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err = e.db.Backup(f, 0); err != nil {
		f.Close()
		return fmt.Errorf("badger backup: %w", err)
	}
	return f.Close()
}

// Load 从备份文件恢复数据
// 恢复的数据覆盖同名 key, 不会清空已有数据
func (e *Engine) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := e.db.Load(f, loadMaxPendingWrites); err != nil {
		return fmt.Errorf("badger load: %w", err)
	}
	return nil
}
