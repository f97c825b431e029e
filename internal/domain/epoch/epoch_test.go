package epoch_test

import (
	"errors"
	"math"
	"testing"

	"github.com/juraj-juraj/BRIA-project/internal/domain/epoch"
	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// ramp builds a channels x n chunk whose channel c holds start+j scaled by c+1.
func ramp(channels, n, start int) model.Chunk {
	out := make(model.Chunk, channels)
	for c := range out {
		out[c] = make([]float64, n)
		for j := range out[c] {
			out[c][j] = float64(start+j) * float64(c+1)
		}
	}
	return out
}

func rowMinMax(row []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range row {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func TestAssemble_Trim(t *testing.T) {
	Convey("Given two full windows at 250 Hz for a 2 s phase", t, func() {
		chunks := []model.Chunk{ramp(2, 250, 0), ramp(2, 250, 250)}

		res, err := epoch.Assemble(chunks, 500, 2)

		Convey("Then the epoch should be exactly 2 x 500 and not short", func() {
			So(err, ShouldBeNil)
			So(len(res.Data), ShouldEqual, 2)
			So(res.Len(), ShouldEqual, 500)
			So(res.Short, ShouldBeFalse)
			So(res.DegenerateChannels, ShouldBeEmpty)
		})
	})

	Convey("Given more data than the phase needs", t, func() {
		chunks := []model.Chunk{ramp(1, 250, 0), ramp(1, 250, 250), ramp(1, 250, 500)}

		res, err := epoch.Assemble(chunks, 600, 1)

		Convey("Then trailing samples should be discarded", func() {
			So(err, ShouldBeNil)
			So(res.Len(), ShouldEqual, 600)
			// values 0..599 rescaled: first is min, last is max
			So(res.Data[0][0], ShouldEqual, -50)
			So(res.Data[0][599], ShouldEqual, 50)
		})
	})
}

func TestAssemble_Short(t *testing.T) {
	Convey("Given chunks summing to 480 samples against a 500 target", t, func() {
		chunks := []model.Chunk{ramp(2, 250, 0), ramp(2, 230, 250)}

		res, err := epoch.Assemble(chunks, 500, 2)

		Convey("Then the epoch should keep 480 samples and be flagged short", func() {
			So(err, ShouldBeNil)
			So(res.Len(), ShouldEqual, 480)
			So(res.Short, ShouldBeTrue)

			e := res.Epoch(7)
			So(e.EventCode, ShouldEqual, 7)
			So(e.Nominal, ShouldEqual, 500)
			So(e.Short, ShouldBeTrue)
			So(e.Len(), ShouldEqual, 480)
		})
	})
}

func TestAssemble_Rescale(t *testing.T) {
	Convey("Given channels with arbitrary ranges and one constant channel", t, func() {
		chunk := model.Chunk{
			{3, -7, 12.5, 0.25, 4},
			{1e6, 1e6 + 3, 1e6 - 2, 1e6, 1e6},
			{42, 42, 42, 42, 42},
		}

		res, err := epoch.Assemble([]model.Chunk{chunk}, 5, 3)

		Convey("Then varying rows should span exactly [-50, 50]", func() {
			So(err, ShouldBeNil)
			for _, c := range []int{0, 1} {
				lo, hi := rowMinMax(res.Data[c])
				So(lo, ShouldAlmostEqual, -50, 1e-9)
				So(hi, ShouldAlmostEqual, 50, 1e-9)
			}
		})

		Convey("Then the mapping should be affine", func() {
			// row 0: min -7, max 12.5 -> 3 maps to ((3+7)/19.5)*100-50
			So(res.Data[0][0], ShouldAlmostEqual, (10.0/19.5)*100-50, 1e-9)
		})

		Convey("Then the constant row should be exactly zero and reported", func() {
			So(res.Data[2], ShouldResemble, []float64{0, 0, 0, 0, 0})
			So(res.DegenerateChannels, ShouldResemble, []int{2})
		})

		Convey("Then the input chunk should be untouched", func() {
			So(chunk[0][0], ShouldEqual, 3)
			So(chunk[2][0], ShouldEqual, 42)
		})
	})
}

func TestAssemble_Idempotent(t *testing.T) {
	Convey("Given the same chunk sequence assembled twice", t, func() {
		chunks := []model.Chunk{ramp(3, 250, 0), {
			{5, 1, 9}, {2, 2, 2}, {-1, 0, 1},
		}}

		a, errA := epoch.Assemble(chunks, 252, 3)
		b, errB := epoch.Assemble(chunks, 252, 3)

		Convey("Then both outputs should be bit-identical", func() {
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)
			So(len(a.Data), ShouldEqual, len(b.Data))
			for c := range a.Data {
				So(len(a.Data[c]), ShouldEqual, len(b.Data[c]))
				for j := range a.Data[c] {
					So(math.Float64bits(a.Data[c][j]), ShouldEqual, math.Float64bits(b.Data[c][j]))
				}
			}
		})
	})
}

func TestAssemble_Errors(t *testing.T) {
	Convey("Given invalid input", t, func() {
		Convey("When there are no chunks", func() {
			_, err := epoch.Assemble(nil, 500, 2)
			So(errors.Is(err, epoch.ErrNoData), ShouldBeTrue)
		})

		Convey("When a chunk has the wrong channel count", func() {
			_, err := epoch.Assemble([]model.Chunk{ramp(2, 10, 0), ramp(3, 10, 0)}, 20, 2)
			So(errors.Is(err, epoch.ErrChannelMismatch), ShouldBeTrue)
		})

		Convey("When a chunk is ragged", func() {
			_, err := epoch.Assemble([]model.Chunk{{{1, 2}, {1}}}, 2, 2)
			So(errors.Is(err, epoch.ErrChannelMismatch), ShouldBeTrue)
		})

		Convey("When the target is not positive", func() {
			_, err := epoch.Assemble([]model.Chunk{ramp(1, 10, 0)}, 0, 1)
			So(errors.Is(err, epoch.ErrNoData), ShouldBeTrue)
		})
	})
}

func TestRescale(t *testing.T) {
	Convey("Given single rows", t, func() {
		row := []float64{2, 4, 6}
		So(epoch.Rescale(row), ShouldBeTrue)
		So(row, ShouldResemble, []float64{-50, 0, 50})

		flat := []float64{1, 1}
		So(epoch.Rescale(flat), ShouldBeFalse)
		So(flat, ShouldResemble, []float64{0, 0})

		So(epoch.Rescale(nil), ShouldBeTrue)
	})
}
