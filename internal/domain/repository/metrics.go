package repository

// NopMetrics discards all measurements. Used when metrics are disabled
// and in tests.
type NopMetrics struct{}

func (NopMetrics) RecordTick(float64)              {}
func (NopMetrics) RecordCacheLookup(bool)          {}
func (NopMetrics) RecordFallback(string)           {}
func (NopMetrics) RecordLastPrice(string, float64) {}
func (NopMetrics) RecordAlertFired(string)         {}
func (NopMetrics) SetSubscribers(int)              {}
func (NopMetrics) RecordSubscriberDropped()        {}
func (NopMetrics) RecordError(string)              {}
