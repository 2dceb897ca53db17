package dicom

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeToUint8_AutoRange(t *testing.T) {
	samples := []float64{100, 150, 200}
	out := normalizeToUint8(samples, false, 0, 0)

	if out[0] != 0 {
		t.Errorf("min sample = %d, want 0", out[0])
	}
	if out[2] != 255 {
		t.Errorf("max sample = %d, want 255", out[2])
	}
	if out[1] != 127 {
		t.Errorf("midpoint = %d, want 127", out[1])
	}
}

func TestNormalizeToUint8_FlatFrame(t *testing.T) {
	out := normalizeToUint8([]float64{42, 42, 42}, false, 0, 0)
	for i, v := range out {
		if v != 0 {
			t.Errorf("sample %d = %d, want 0 for zero-span frame", i, v)
		}
	}
}

func TestNormalizeToUint8_ExplicitWindow(t *testing.T) {
	// Window [50, 150]: values clip at the edges and scale inside.
	samples := []float64{0, 50, 100, 150, 300}
	out := normalizeToUint8(samples, true, 100, 100)

	want := []uint8{0, 0, 127, 255, 255}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestNormalizeToUint8_Empty(t *testing.T) {
	if out := normalizeToUint8(nil, false, 0, 0); out != nil {
		t.Errorf("got %v, want nil", out)
	}
}

func TestInvertSamples(t *testing.T) {
	samples := []float64{0, 100, 400}
	invertSamples(samples)

	want := []float64{400, 300, 0}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %g, want %g", i, samples[i], want[i])
		}
	}
}

func TestParseTimeToSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"000000", 0},
		{"010203", 3723},
		{"120000.500000", 43200.5},
		{"2359", 86340},
		{" 010203 ", 3723},
		{"", 0},
		{"xx", 0},
		{"ab0000", 0},
	}

	for _, tt := range tests {
		if got := parseTimeToSeconds(tt.in); got != tt.want {
			t.Errorf("parseTimeToSeconds(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestOrderKeyLess(t *testing.T) {
	key := func(instance, imgIndex, acqNum, acqTime float64, sub int) orderKey {
		return orderKey{instance: instance, imgIndex: imgIndex, acqNum: acqNum, acqTime: acqTime, sub: sub}
	}

	tests := []struct {
		name string
		a, b orderKey
		want bool
	}{
		{"instance wins", key(1, 99, 99, 99, 9), key(2, 0, 0, 0, 0), true},
		{"image index breaks tie", key(1, 1, 99, 99, 9), key(1, 2, 0, 0, 0), true},
		{"acquisition number next", key(1, 1, 1, 99, 9), key(1, 1, 2, 0, 0), true},
		{"acquisition time next", key(1, 1, 1, 30, 9), key(1, 1, 1, 60, 0), true},
		{"file position last", key(1, 1, 1, 1, 0), key(1, 1, 1, 1, 1), true},
		{"equal keys are not less", key(1, 1, 1, 1, 1), key(1, 1, 1, 1, 1), false},
		{"missing instance sorts last", key(missingKey, 0, 0, 0, 0), key(5, 99, 99, 99, 9), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.less(tt.b); got != tt.want {
				t.Errorf("less = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderKeySort_MissingTagsTrail(t *testing.T) {
	keys := []orderKey{
		{instance: missingKey, imgIndex: missingKey, acqNum: missingKey},
		{instance: 2, imgIndex: missingKey, acqNum: missingKey},
		{instance: 1, imgIndex: missingKey, acqNum: missingKey},
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	if keys[0].instance != 1 || keys[1].instance != 2 || keys[2].instance != missingKey {
		t.Errorf("order = %v", keys)
	}
}

func TestEncodeFrame(t *testing.T) {
	f := rawFrame{
		pix:    []uint8{0, 64, 128, 255},
		width:  2,
		height: 2,
	}
	data, err := encodeFrame(f)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		t.Fatalf("payload not base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload not png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("bounds %v", b)
	}
	r, _, _, _ := img.At(1, 1).RGBA()
	if uint8(r>>8) != 255 {
		t.Errorf("pixel (1,1) = %d, want 255", uint8(r>>8))
	}
}

func TestSeriesInfo_CapsExamples(t *testing.T) {
	s := &Series{
		UID:      "1.2.3",
		Examples: []string{"a", "b", "c", "d", "e", "f", "g"},
		Frames:   []dto.Frame{{}, {}},
	}
	info := s.Info()

	if len(info.Examples) != 5 {
		t.Errorf("examples = %d, want 5", len(info.Examples))
	}
	if info.FrameCount != 2 {
		t.Errorf("frame count = %d", info.FrameCount)
	}
}

func TestGroupBySeries_SkipsNonDICOM(t *testing.T) {
	files := []File{
		{Name: "readme.txt", Data: []byte("not a dicom file")},
		{Name: "empty.dcm", Data: nil},
	}
	series := GroupBySeries(files, testLogger())
	if len(series) != 0 {
		t.Errorf("got %d series from junk input", len(series))
	}
}
