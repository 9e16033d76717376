package errors

// sentinelMark tags a cause with a sentinel. It answers Is for the sentinel, so both the
// standard library and cockroachdb errors.Is see it, and it keeps the cause's message.
type sentinelMark struct {
	cause    error
	sentinel error
}

func (m *sentinelMark) Error() string { return m.cause.Error() }

func (m *sentinelMark) Cause() error { return m.cause }

func (m *sentinelMark) Unwrap() error { return m.cause }

func (m *sentinelMark) Is(target error) bool { return target == m.sentinel }

// Mark tags err with sentinel without changing its message. A nil err stays nil.
func Mark(err, sentinel error) error {
	if err == nil || sentinel == nil {
		return err
	}
	return &sentinelMark{cause: err, sentinel: sentinel}
}
