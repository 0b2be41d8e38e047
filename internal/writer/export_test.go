package writer

import "time"

// SetNowFunc replaces the writer clock for cadence tests.
func (w *DurableWriter) SetNowFunc(now func() time.Time) {
	w.now = now
	w.lastSync = now()
}

// LastSync exposes the last sync attempt time for cadence tests.
func (w *DurableWriter) LastSync() time.Time {
	return w.lastSync
}
