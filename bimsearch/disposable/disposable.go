package disposable

// Disposable releases a previously acquired subscription or resource.
// Dispose is idempotent.
type Disposable interface {
	Dispose()
}

func NewDisposable(dispose func()) Disposable {
	return &disposableImp{dispose: dispose}
}

type disposableImp struct {
	dispose  func()
	disposed bool
}

func (d *disposableImp) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	d.dispose()
}
