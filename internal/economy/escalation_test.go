package economy

import (
	"testing"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

func TestEscalationCost_ExactWeeklySchedule(t *testing.T) {
	// Medium cap 2000: the week 1 base is 2000/128 = 15.625, truncated
	// per week after scaling.
	want := []int{15, 31, 62, 125, 250, 500, 1000, 2000}
	for i, expected := range want {
		if got := EscalationCost(model.CyberMedium, i+1); got != expected {
			t.Errorf("medium week %d: expected %d, got %d", i+1, expected, got)
		}
	}
	if got := EscalationCost(model.CyberExtreme, 1); got != 78 {
		t.Errorf("extreme week 1: expected 78, got %d", got)
	}
}

func TestEscalationCost_CappedAndMonotonic(t *testing.T) {
	levels := []model.CyberLevel{model.CyberMedium, model.CyberHigh, model.CyberExtreme}
	for _, level := range levels {
		cap := model.CyberwareCaps[level]
		prev := 0
		for weeks := 1; weeks <= 20; weeks++ {
			cost := EscalationCost(level, weeks)
			if cost > cap {
				t.Errorf("%s week %d: cost %d exceeds cap %d", level, weeks, cost, cap)
			}
			if cost < prev {
				t.Errorf("%s week %d: cost %d dropped below week %d's %d", level, weeks, cost, weeks-1, prev)
			}
			prev = cost
		}
	}
}

func TestEscalationCost_SaturatesAtWeekEight(t *testing.T) {
	for level, cap := range model.CyberwareCaps {
		if got := EscalationCost(level, 8); got != cap {
			t.Errorf("%s week 8: expected cap %d, got %d", level, cap, got)
		}
		if got := EscalationCost(level, 7); got >= cap {
			t.Errorf("%s week 7: expected below cap %d, got %d", level, cap, got)
		}
	}
}

func TestEscalationCost_WeekOneIsBase(t *testing.T) {
	tests := []struct {
		level model.CyberLevel
		want  int
	}{
		{model.CyberMedium, 2000 / 128},
		{model.CyberHigh, 5000 / 128},
		{model.CyberExtreme, 10000 / 128},
	}
	for _, tt := range tests {
		if got := EscalationCost(tt.level, 1); got != tt.want {
			t.Errorf("%s week 1: expected %d, got %d", tt.level, tt.want, got)
		}
	}
}
