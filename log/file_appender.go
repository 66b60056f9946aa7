package log

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"time"
)

const (
	// _asyncByteSizePerIOWrite bounds one async batch write (10MB) so a
	// burst of logging cannot grow the send buffer without limit.
	_asyncByteSizePerIOWrite = 10 << 20
)

// FileAppender writes log output to files in either synchronous or
// asynchronous mode, with automatic rotation by size and time. Async mode
// keeps file I/O off the ingest loop entirely.
type FileAppender struct {
	logger            Logger             // Parent logger, used for fallback reporting
	fileName          string             // Path to the log file
	fileSplitMB       int                // Max file size in MB before rotation
	fileSplitHour     int                // Hour of day for time-based rotation
	isAsync           bool               // Whether async mode is enabled
	asyncWriteMillSec int                // Async batch write interval in ms
	fileFd            *os.File           // Current log file descriptor
	fileCreateTime    time.Time          // Creation time of the current file
	lock              sync.Mutex         // Guards file operations
	bufChan           chan *bytes.Buffer // Queued async log buffers
	ntfChan           chan chan struct{} // Flush notification channel
	asyncSendBuf      *bytes.Buffer      // Accumulator for batched writes
	bufferPool        sync.Pool          // Reusable buffers
	currentConfig     *LogCfg
	configMutex       sync.RWMutex
}

// NewFileAppender creates a FileAppender from cfg. Panics on invalid
// configuration so misconfiguration surfaces at startup, not mid-stream.
func NewFileAppender(cfg *LogCfg, l Logger) *FileAppender {
	a := &FileAppender{
		logger: l,
	}
	if err := a.init(cfg); err != nil {
		panic(err)
	}
	return a
}

// GetCurrentConfig returns the current file appender configuration.
func (a *FileAppender) GetCurrentConfig() *LogCfg {
	a.configMutex.RLock()
	defer a.configMutex.RUnlock()
	return a.currentConfig
}

// init applies configuration, sets up buffer pooling, and starts the async
// writer goroutine when async mode is enabled.
func (a *FileAppender) init(cfg *LogCfg) error {
	if err := CheckCfgValid(cfg); err != nil {
		return err
	}

	a.configMutex.Lock()
	defer a.configMutex.Unlock()

	a.fileName = cfg.LogPath
	a.isAsync = cfg.IsAsync
	a.asyncWriteMillSec = cfg.AsyncWriteMillSec
	a.fileSplitMB = cfg.FileSplitMB
	a.fileSplitHour = cfg.FileSplitHour
	a.currentConfig = cfg

	if cfg.IsAsync {
		a.bufferPool = sync.Pool{
			New: func() interface{} {
				return &bytes.Buffer{}
			},
		}

		a.asyncSendBuf = bytes.NewBuffer(make([]byte, 0, _asyncByteSizePerIOWrite))

		a.bufChan = make(chan *bytes.Buffer, cfg.AsyncCacheSize)
		a.ntfChan = make(chan chan struct{})
		go a.asyncWriteLoop()
	}

	return nil
}

// CheckCfgValid normalizes configuration values, applying defaults for
// missing or out-of-range parameters.
func CheckCfgValid(cfg *LogCfg) error {
	if len(cfg.LogPath) == 0 {
		cfg.LogPath = "./shredscan.log"
	}
	if cfg.LogLevel <= 0 {
		cfg.LogLevel = DebugLevel
	}

	if cfg.FileSplitMB <= 0 {
		cfg.FileSplitMB = 50
	}

	if cfg.FileSplitHour < 0 {
		cfg.FileSplitHour = 24
	}

	if cfg.IsAsync {
		if cfg.AsyncCacheSize <= 0 {
			cfg.AsyncCacheSize = 1024
		}
		if cfg.AsyncWriteMillSec <= 0 {
			cfg.AsyncWriteMillSec = 200
		}
	}
	return nil
}

// Write dispatches between the sync and async write paths. The async path
// returns immediately after queueing.
func (a *FileAppender) Write(buf []byte) (n int, err error) {
	if a.isAsync {
		a.writeAsync(buf)
		return len(buf), nil
	}

	return a.writeSync(buf)
}

// Refresh forces an immediate flush of all buffered logs to disk. No-op in
// sync mode.
func (a *FileAppender) Refresh() error {
	if !a.isAsync {
		return nil
	}
	doneChan := make(chan struct{})
	a.ntfChan <- doneChan
	<-doneChan
	return nil
}

// Close flushes pending logs, stops the async goroutine, and closes the
// file descriptor.
func (a *FileAppender) Close() error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.isAsync {
		close(a.ntfChan)
		a.writeAll()
	}

	if a.fileFd != nil {
		err := a.fileFd.Close()
		a.fileFd = nil
		return err
	}
	return nil
}

// writeSync performs a locked write with rotation handling.
func (a *FileAppender) writeSync(buf []byte) (n int, err error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	newFd, newFileCreateTime, err := UpdateFileFd(a.fileName,
		a.fileSplitHour,
		a.fileSplitMB,
		a.fileFd, a.fileCreateTime)
	if err != nil {
		return 0, err
	}
	if newFd == nil {
		return 0, errors.New("writeSync newFd err")
	}
	a.fileFd = newFd
	a.fileCreateTime = newFileCreateTime
	return a.fileFd.Write(buf)
}

// writeAsync queues a log entry without blocking. When the queue is full it
// nudges the writer goroutine to drain before retrying.
func (a *FileAppender) writeAsync(buf []byte) {
	buffer := a.bufferPool.Get().(*bytes.Buffer)

	buffer.Reset()
	buffer.Write(buf)

	select {
	case a.bufChan <- buffer:
	default:
		select {
		case a.bufChan <- buffer:
		case a.ntfChan <- nil:
			// Notify immediate write and retry
			a.bufChan <- buffer
		}
	}
}

// writeAll drains the async queue into batched disk writes, recycling
// buffers back to the pool.
func (a *FileAppender) writeAll() {
	for {
		select {
		case buffer := <-a.bufChan:
			// Flush when the batch would exceed the per-write limit.
			if a.asyncSendBuf.Len()+buffer.Len() > _asyncByteSizePerIOWrite {
				a.writeSync(a.asyncSendBuf.Bytes())
				a.asyncSendBuf.Reset()
			}
			a.asyncSendBuf.Write(buffer.Bytes())

			buffer.Reset()
			a.bufferPool.Put(buffer)
		default:
			if a.asyncSendBuf.Len() > 0 {
				a.writeSync(a.asyncSendBuf.Bytes())
				a.asyncSendBuf.Reset()
			}
			return
		}
	}
}

// asyncWriteLoop runs in a dedicated goroutine, alternating between
// timer-driven batch writes and explicit flush requests from Refresh().
func (a *FileAppender) asyncWriteLoop() {
	tickTimer := time.NewTicker(time.Duration(a.asyncWriteMillSec) * time.Millisecond)
	defer tickTimer.Stop()
	for {
		select {
		case doneChan, ok := <-a.ntfChan:
			a.writeAll()
			if doneChan != nil {
				// Ensure data reaches disk when explicitly requested
				if a.fileFd != nil {
					_ = a.fileFd.Sync()
				}
				doneChan <- struct{}{}
			}
			if !ok {
				// Graceful shutdown
				return
			}
		case <-tickTimer.C:
			a.writeAll()
		}
	}
}
