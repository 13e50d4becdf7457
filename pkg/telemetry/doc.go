// Package telemetry provides a high-level API over the gpmf decoder:
// decoding extracted metadata tracks to record trees, converting trees to
// generic maps and JSON, and flattening trees into device/stream-attributed
// samples for downstream filtering.
//
// Basic usage:
//
//	records, err := telemetry.Decode(trackBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	jsonData, err := telemetry.ToJSON(trackBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
package telemetry
