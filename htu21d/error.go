package htu21d

// ReadTimeoutError is returned when the sensor still has no finished
// measurement after the full polling bound.
type ReadTimeoutError struct{}

func (e *ReadTimeoutError) Error() string {
	return "htu21d: measurement timed out before data became available"
}

// ChecksumError is returned when a reading does not survive CRC8
// verification. The corrupted value is discarded.
type ChecksumError struct{}

func (e *ChecksumError) Error() string {
	return "htu21d: measurement discarded, CRC8 check failed"
}
