package gbuffer

// ObjectNamer attaches human-readable labels to GPU objects so they show up
// usefully in debuggers and validation messages. Naming is best-effort and
// diagnostic only; implementations must not fail the caller. An
// ext_debug_utils-backed namer can be plugged in by the application.
type ObjectNamer interface {
	SetObjectName(object any, name string)
}

// NoopNamer discards all names. It is the default when Config.Namer is nil.
type NoopNamer struct{}

func (NoopNamer) SetObjectName(object any, name string) {}
