package gpmf

import "fmt"

// Key is the 4-byte code identifying a record's meaning and its decoding
// routine. It is matched as raw bytes, never interpreted as text, except
// when rendering a label for diagnostics.
type Key [4]byte

// MakeKey builds a Key from a 4-character string. It panics on any other
// length; keys are compile-time constants in practice.
func MakeKey(s string) Key {
	if len(s) != 4 {
		panic(fmt.Sprintf("gpmf: key must be 4 bytes, got %q", s))
	}
	var k Key
	copy(k[:], s)
	return k
}

// String renders the key as a label. Non-printable bytes are hex-escaped so
// corrupted keys stay readable in logs and error messages.
func (k Key) String() string {
	for _, b := range k {
		if b < 0x20 || b > 0x7e {
			return fmt.Sprintf("%#02x%02x%02x%02x", k[0], k[1], k[2], k[3])
		}
	}
	return string(k[:])
}

// Known type keys.
var (
	KeyDevice          = MakeKey("DEVC") // device grouping container
	KeyStream          = MakeKey("STRM") // stream grouping container
	KeyDeviceID        = MakeKey("DVID")
	KeyDeviceName      = MakeKey("DVNM")
	KeyStreamName      = MakeKey("STNM")
	KeyOrientation     = MakeKey("ORIN")
	KeyGPSTime         = MakeKey("GPSU")
	KeyTypeLabel       = MakeKey("TYPE")
	KeyUnits           = MakeKey("SIUN")
	KeyScale           = MakeKey("SCAL")
	KeyTotalSamples    = MakeKey("TSMP")
	KeyTimestamp       = MakeKey("STMP")
	KeyTemperature     = MakeKey("TMPC")
	KeyAccel           = MakeKey("ACCL")
	KeyGyro            = MakeKey("GYRO")
	KeyGravity         = MakeKey("GRAV")
	KeyCameraOrient    = MakeKey("CORI")
	KeyImageOrient     = MakeKey("IORI")
	KeyShutter         = MakeKey("SHUT")
	KeyWhiteBalanceRGB = MakeKey("WRGB")
	KeyUniformity      = MakeKey("UNIF")
	KeyWhiteBalance    = MakeKey("WBAL")
	KeyISO             = MakeKey("ISOE")
	KeyWindProcessing  = MakeKey("WNDM")
	KeyMicWet          = MakeKey("MWET")
	KeyAudioLevel      = MakeKey("AALP")
	KeyMediaSkip       = MakeKey("MSKP")
	KeyLowResSkip      = MakeKey("LSKP")
)

// Element type tags: the 1-byte marker describing the primitive encoding of
// each payload element. Values are inherited from the wire format.
const (
	TagNested  byte = 0 // payload is a nested record sequence
	TagInt8    byte = 'b'
	TagUint8   byte = 'B'
	TagInt16   byte = 's'
	TagUint16  byte = 'S'
	TagInt32   byte = 'l'
	TagUint32  byte = 'L'
	TagUint64  byte = 'J'
	TagFloat32 byte = 'f'
	TagChar    byte = 'c'
	TagCustom  byte = '?' // opaque vendor payload
)

func tagName(tag byte) string {
	if tag == TagNested {
		return "nested"
	}
	if tag >= 0x20 && tag <= 0x7e {
		return fmt.Sprintf("%q", tag)
	}
	return fmt.Sprintf("%#02x", tag)
}

// Record is one decoded KLV record: its type key and its typed payload.
// Records own their payloads exclusively; a decoded tree shares no state
// with any other tree or with the input buffer's decode bookkeeping.
type Record struct {
	Key   Key
	Value Value
}

// Value is the closed set of payload variants. Only the types in this file
// implement it; decoders and consumers switch over the full set.
type Value interface {
	isValue()
}

// Scalar variants. Each corresponds to a key whose count is fixed at one.
type (
	// DeviceID identifies the physical device that produced a DEVC group.
	DeviceID uint32
	// TotalSamples is the running sample total for a stream.
	TotalSamples uint32
	// Temperature is the device temperature in degrees Celsius.
	Temperature float32
	// Timestamp is the stream start timestamp in microseconds.
	Timestamp uint64
)

// Text is a UTF-8 string payload (device/stream names, orientation, GPS
// timestamp text, free-form type labels).
type Text string

// Unit is an SI unit string. It is a distinct type from Text because unit
// payloads go through the trailing-byte correction described in decodeUnits.
type Unit string

// Tuple-list variants: count elements of a fixed width each.
type (
	// Triplets holds signed 16-bit XYZ samples (acceleration, gyroscope,
	// gravity vector).
	Triplets [][3]int16
	// Quartets holds signed 16-bit quaternion samples (camera and image
	// orientation).
	Quartets [][4]int16
	// Floats holds 32-bit float samples (shutter speed, white balance gains,
	// image uniformity).
	Floats []float32
	// Uint16s holds unsigned 16-bit samples (white balance kelvin, ISO).
	Uint16s []uint16
	// Int16s holds signed 16-bit samples (frame-skip counters).
	Int16s []int16
	// BytePairs holds two-byte samples (wind processing, microphone-wet).
	BytePairs [][2]uint8
	// ByteTriples holds three-byte samples (audio level).
	ByteTriples [][3]uint8
)

// ScaleFactor is the captured divisor for converting raw samples to physical
// units. It has two wire shapes: a single signed 16-bit divisor, or a vector
// of signed 32-bit divisors for multi-axis (GPS) streams. Vector is nil in
// the single-divisor shape.
type ScaleFactor struct {
	Divisor int16
	Vector  []int32
}

// Container is the payload of a grouping record: its children in arrival
// order.
type Container []Record

// Unknown is the fallback payload for keys without a table entry: the
// literal key bytes as a label plus the raw payload.
type Unknown struct {
	Label string
	Raw   []byte
}

func (DeviceID) isValue()     {}
func (TotalSamples) isValue() {}
func (Temperature) isValue()  {}
func (Timestamp) isValue()    {}
func (Text) isValue()         {}
func (Unit) isValue()         {}
func (Triplets) isValue()     {}
func (Quartets) isValue()     {}
func (Floats) isValue()       {}
func (Uint16s) isValue()      {}
func (Int16s) isValue()       {}
func (BytePairs) isValue()    {}
func (ByteTriples) isValue()  {}
func (ScaleFactor) isValue()  {}
func (Container) isValue()    {}
func (Unknown) isValue()      {}
