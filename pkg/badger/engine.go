package badger

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	defaultGCInterval   = time.Minute * 5
	defaultDiscardRatio = 0.5
	closeTimeout        = time.Second * 5
)

// ErrCloseTimeout 关闭超时
var ErrCloseTimeout = errors.New("badger: engine close timeout")

// Options 引擎配置
type Options struct {
	Dir            string        // 数据目录, 非内存模式必填
	InMemory       bool          // 内存模式, 不落盘也不做 GC
	GCInterval     time.Duration // value log GC 间隔, 默认 5 分钟
	GCDiscardRatio float64       // value log GC 丢弃比例, 默认 0.5
	Logger         *slog.Logger  // 日志, 默认 slog.Default()
}

// Engine badger引擎
type Engine struct {
	db     *badger.DB
	logger *slog.Logger

	gcInterval     time.Duration      // GC间隔时间
	gcDiscardRatio float64            // GC丢弃比例
	gcUpdateChan   chan time.Duration // GC更新间隔时间信号

	done      chan struct{} // 退出信号
	wg        sync.WaitGroup
	closeOnce sync.Once
	err       error
}

// New 创建一个badger引擎
func New(opt Options) (*Engine, error) {
	if !opt.InMemory && opt.Dir == "" {
		return nil, errors.New("badger: Options.Dir is required for on-disk mode")
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dbOpts := badger.DefaultOptions(opt.Dir).
		WithInMemory(opt.InMemory).
		WithLogger(slogLogger{logger.With("component", "badger")})
	if opt.InMemory {
		dbOpts = dbOpts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		db:     db,
		logger: logger,

		gcInterval:     opt.GCInterval,
		gcDiscardRatio: opt.GCDiscardRatio,
		gcUpdateChan:   make(chan time.Duration),

		done: make(chan struct{}),
	}
	if e.gcInterval <= 0 {
		e.gcInterval = defaultGCInterval
	}
	if e.gcDiscardRatio <= 0 || e.gcDiscardRatio >= 1 {
		e.gcDiscardRatio = defaultDiscardRatio
	}

	// 内存模式不支持 value log GC
	if !opt.InMemory {
		e.wg.Add(1)
		go e.listenerGC()
	}
	return e, nil
}

// Default 创建一个默认的badger引擎
func Default(dir string) (*Engine, error) {
	return New(Options{Dir: dir})
}

// DB 获取badger数据库
func (e *Engine) DB() *badger.DB { return e.db }

// listenerGC 定时执行 value log GC, 直到引擎关闭
func (e *Engine) listenerGC() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.runGC()
		case interval := <-e.gcUpdateChan:
			e.gcInterval = interval
			ticker.Reset(interval)
			e.logger.Debug("badger gc interval updated", "interval", interval)
		}
	}
}

// runGC 反复回收直到没有可回收的文件
func (e *Engine) runGC() {
	for {
		err := e.db.RunValueLogGC(e.gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
			e.logger.Warn("badger value log gc failed", "error", err)
		}
		return
	}
}

// SetGCInterval 设置GC间隔, 非正数或内存模式下忽略
func (e *Engine) SetGCInterval(interval time.Duration) {
	if 0 >= interval || e.db.Opts().InMemory {
		return
	}
	select {
	case e.gcUpdateChan <- interval:
	case <-e.done:
	}
}

// Close 关闭badger引擎, 重复调用返回第一次的结果
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)

		stopped := make(chan struct{}, 1)
		go func() {
			e.wg.Wait()
			stopped <- struct{}{}
		}()
		select {
		case <-stopped:
		case <-time.After(closeTimeout):
			e.err = ErrCloseTimeout
			return
		}
		e.err = e.db.Close()
	})
	return e.err
}
