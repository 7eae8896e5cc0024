package clock

import (
	"testing"
	"time"

	"github.com/benvon/thermod/pkg/model"
)

func TestSlotAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want Slot
	}{
		{
			name: "monday midnight",
			at:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			want: Slot{Day: model.Monday, Hour: 0, Quarter: 0},
		},
		{
			name: "sunday quarter boundary",
			at:   time.Date(2024, 1, 7, 23, 45, 1, 0, time.UTC),
			want: Slot{Day: model.Sunday, Hour: 23, Quarter: 3},
		},
		{
			name: "mid quarter",
			at:   time.Date(2024, 1, 3, 14, 22, 0, 0, time.UTC),
			want: Slot{Day: model.Wednesday, Hour: 14, Quarter: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlotAt(tt.at); got != tt.want {
				t.Errorf("SlotAt(%v) = %+v, want %+v", tt.at, got, tt.want)
			}
		})
	}
}

func TestFakeClock(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f := NewFake(base)
	if !f.Now().Equal(base) {
		t.Fatalf("Now() = %v, want %v", f.Now(), base)
	}
	f.Advance(90 * time.Minute)
	want := base.Add(90 * time.Minute)
	if !f.Now().Equal(want) {
		t.Errorf("after Advance, Now() = %v, want %v", f.Now(), want)
	}
	f.Set(base)
	if !f.Now().Equal(base) {
		t.Errorf("after Set, Now() = %v, want %v", f.Now(), base)
	}
}
