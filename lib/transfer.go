package awsivy

import (
	"io"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
)

type RequestKind int

const (
	RequestGet RequestKind = iota
	RequestPut
)

func (k RequestKind) String() string {
	switch k {
	case RequestGet:
		return "get"
	case RequestPut:
		return "put"
	default:
		return "unknown"
	}
}

// TransferEvent identifies one download or upload for the lifetime of the
// transfer.
type TransferEvent struct {
	ID          string
	Kind        RequestKind
	URI         string
	LocalPath   string
	TotalLength int64
	Started     time.Time
}

func newTransferEvent(kind RequestKind, uri, localPath string, total int64) *TransferEvent {
	return &TransferEvent{
		ID:          uuid.NewV4().String(),
		Kind:        kind,
		URI:         uri,
		LocalPath:   localPath,
		TotalLength: total,
		Started:     time.Now(),
	}
}

// TransferListener receives transfer lifecycle notifications. A transfer
// ends with exactly one of TransferCompleted or TransferError.
type TransferListener interface {
	TransferInitiated(ev *TransferEvent)
	TransferProgress(ev *TransferEvent, transferred int64)
	TransferCompleted(ev *TransferEvent, total int64)
	TransferError(ev *TransferEvent, err error)
}

type multiListener struct {
	lock      sync.RWMutex
	listeners []TransferListener
}

func (m *multiListener) Add(l TransferListener) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *multiListener) each(fn func(TransferListener)) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	for _, l := range m.listeners {
		fn(l)
	}
}

func (m *multiListener) TransferInitiated(ev *TransferEvent) {
	m.each(func(l TransferListener) { l.TransferInitiated(ev) })
}

func (m *multiListener) TransferProgress(ev *TransferEvent, transferred int64) {
	m.each(func(l TransferListener) { l.TransferProgress(ev, transferred) })
}

func (m *multiListener) TransferCompleted(ev *TransferEvent, total int64) {
	m.each(func(l TransferListener) { l.TransferCompleted(ev, total) })
}

func (m *multiListener) TransferError(ev *TransferEvent, err error) {
	m.each(func(l TransferListener) { l.TransferError(ev, err) })
}

// LogListener writes transfer notifications to a Logger.
type LogListener struct {
	logger *Logger
}

func NewLogListener(logger *Logger) *LogListener {
	return &LogListener{logger: logger}
}

func (l *LogListener) fields(ev *TransferEvent) []zap.Field {
	return []zap.Field{
		zap.String("id", ev.ID),
		zap.Stringer("kind", ev.Kind),
		zap.String("uri", ev.URI),
		zap.String("path", ev.LocalPath),
	}
}

func (l *LogListener) TransferInitiated(ev *TransferEvent) {
	l.logger.Info("transfer initiated", append(l.fields(ev), zap.Int64("length", ev.TotalLength))...)
}

func (l *LogListener) TransferProgress(ev *TransferEvent, transferred int64) {
	l.logger.Debug("transfer progress", append(l.fields(ev), zap.Int64("transferred", transferred))...)
}

func (l *LogListener) TransferCompleted(ev *TransferEvent, total int64) {
	l.logger.Info("transfer completed", append(l.fields(ev),
		zap.Int64("total", total),
		zap.Duration("elapsed", time.Since(ev.Started)))...)
}

func (l *LogListener) TransferError(ev *TransferEvent, err error) {
	l.logger.Error("transfer failed", append(l.fields(ev), zap.Error(err))...)
}

// progressWriter reports the running byte count of everything written
// through it.
type progressWriter struct {
	w           io.Writer
	ev          *TransferEvent
	listener    TransferListener
	transferred int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		p.transferred += int64(n)
		p.listener.TransferProgress(p.ev, p.transferred)
	}
	return n, err
}
