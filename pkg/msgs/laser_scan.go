package msgs

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/turtlebot3-test/pkg/flatbuffers/turtlebot/sensor"
)

type Header struct {
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// LaserScan is a single sweep of a planar range finder.
type LaserScan struct {
	Header         Header    `json:"header"`
	AngleMin       float64   `json:"angle_min"`
	AngleMax       float64   `json:"angle_max"`
	AngleIncrement float64   `json:"angle_increment"`
	TimeIncrement  float64   `json:"time_increment"`
	ScanTime       float64   `json:"scan_time"`
	RangeMin       float64   `json:"range_min"`
	RangeMax       float64   `json:"range_max"`
	Ranges         []float64 `json:"ranges"`
	Intensities    []float64 `json:"intensities"`
}

func (LaserScan) TypeName() string { return LaserScanTypeName }

func (s LaserScan) Marshal() ([]byte, error) {
	builder := flatbuffers.NewBuilder(64 + 8*(len(s.Ranges)+len(s.Intensities)))

	frameID := builder.CreateString(s.Header.FrameID)
	ranges := float64Vector(builder, sensor.LaserScanStartRangesVector, s.Ranges)
	intensities := float64Vector(builder, sensor.LaserScanStartIntensitiesVector, s.Intensities)

	sensor.HeaderStart(builder)
	sensor.HeaderAddStamp(builder, sensor.CreateTime(builder, s.Header.Stamp.Sec, s.Header.Stamp.Nanosec))
	sensor.HeaderAddFrameId(builder, frameID)
	header := sensor.HeaderEnd(builder)

	sensor.LaserScanStart(builder)
	sensor.LaserScanAddHeader(builder, header)
	sensor.LaserScanAddAngleMin(builder, s.AngleMin)
	sensor.LaserScanAddAngleMax(builder, s.AngleMax)
	sensor.LaserScanAddAngleIncrement(builder, s.AngleIncrement)
	sensor.LaserScanAddTimeIncrement(builder, s.TimeIncrement)
	sensor.LaserScanAddScanTime(builder, s.ScanTime)
	sensor.LaserScanAddRangeMin(builder, s.RangeMin)
	sensor.LaserScanAddRangeMax(builder, s.RangeMax)
	sensor.LaserScanAddRanges(builder, ranges)
	sensor.LaserScanAddIntensities(builder, intensities)
	builder.Finish(sensor.LaserScanEnd(builder))
	return builder.FinishedBytes(), nil
}

// UnmarshalLaserScan decodes a LaserScan table. Range and intensity slices
// are always non-nil.
func UnmarshalLaserScan(data []byte) (LaserScan, error) {
	var s LaserScan
	err := decode(LaserScanTypeName, data, func() {
		fb := sensor.GetRootAsLaserScan(data, 0)
		if h := fb.Header(nil); h != nil {
			s.Header.FrameID = string(h.FrameId())
			var stamp sensor.Time
			if h.Stamp(&stamp) != nil {
				s.Header.Stamp = Time{Sec: stamp.Sec(), Nanosec: stamp.Nanosec()}
			}
		}
		s.AngleMin = fb.AngleMin()
		s.AngleMax = fb.AngleMax()
		s.AngleIncrement = fb.AngleIncrement()
		s.TimeIncrement = fb.TimeIncrement()
		s.ScanTime = fb.ScanTime()
		s.RangeMin = fb.RangeMin()
		s.RangeMax = fb.RangeMax()

		s.Ranges = make([]float64, fb.RangesLength())
		for i := range s.Ranges {
			s.Ranges[i] = fb.Ranges(i)
		}
		s.Intensities = make([]float64, fb.IntensitiesLength())
		for i := range s.Intensities {
			s.Intensities[i] = fb.Intensities(i)
		}
	})
	return s, err
}

func float64Vector(builder *flatbuffers.Builder, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT, values []float64) flatbuffers.UOffsetT {
	start(builder, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		builder.PrependFloat64(values[i])
	}
	return builder.EndVector(len(values))
}
