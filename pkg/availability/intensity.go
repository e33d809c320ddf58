package availability

import "fmt"

// Bucket is the discrete heat-map intensity of a slot or block.
type Bucket int

const (
	// NoData is also returned when nobody is free; callers tell both apart by the total count.
	NoData Bucket = iota
	MostlyBusy
	Few
	Half
	Mostly
	EveryoneFree
)

var bucketNames = map[Bucket]string{
	NoData:       "no_data",
	MostlyBusy:   "mostly_busy",
	Few:          "few",
	Half:         "half",
	Mostly:       "mostly",
	EveryoneFree: "everyone_free",
}

func (b Bucket) String() string {
	if name, ok := bucketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bucket(%d)", int(b))
}

func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bucket) UnmarshalText(text []byte) error {
	for bucket, name := range bucketNames {
		if name == string(text) {
			*b = bucket
			return nil
		}
	}
	return fmt.Errorf("unknown intensity bucket: %q", string(text))
}

// Intensity maps the share of free members onto a bucket:
// [0.75,1) Mostly, [0.5,0.75) Half, [0.25,0.5) Few, (0,0.25) MostlyBusy.
func Intensity(freeCount, totalCount int) Bucket {
	switch {
	case totalCount <= 0:
		return NoData
	case freeCount >= totalCount:
		return EveryoneFree
	case freeCount <= 0:
		return NoData
	case 4*freeCount >= 3*totalCount:
		return Mostly
	case 2*freeCount >= totalCount:
		return Half
	case 4*freeCount >= totalCount:
		return Few
	default:
		return MostlyBusy
	}
}
