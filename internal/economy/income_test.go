package economy

import "testing"

func TestPassiveIncome_TierZeroFlatScale(t *testing.T) {
	want := map[int]int{0: 0, 1: 150, 2: 250, 3: 350, 4: 500}
	for opens, expected := range want {
		if got := PassiveIncome("Business Tier 0", opens); got != expected {
			t.Errorf("tier 0 with %d opens: expected %d, got %d", opens, expected, got)
		}
	}
}

func TestPassiveIncome_RentFraction(t *testing.T) {
	cases := []struct {
		role  string
		opens int
		want  int
	}{
		{"Business Tier 1", 0, 0},
		{"Business Tier 1", 1, 500},  // 2000 * 0.25
		{"Business Tier 1", 2, 800},  // 2000 * 0.40
		{"Business Tier 2", 3, 1800}, // 3000 * 0.60
		{"Business Tier 3", 4, 4000}, // 5000 * 0.80
	}
	for _, c := range cases {
		if got := PassiveIncome(c.role, c.opens); got != c.want {
			t.Errorf("%s with %d opens: expected %d, got %d", c.role, c.opens, c.want, got)
		}
	}
}

func TestOpenReward_IncrementalAndCapped(t *testing.T) {
	roles := []string{"Business Tier 1"}
	total := 0
	for opens := 0; opens < 4; opens++ {
		total += OpenReward(roles, opens)
	}
	if full := PassiveIncome("Business Tier 1", 4); total != full {
		t.Errorf("four incremental rewards should sum to the full month income %d, got %d", full, total)
	}
	if got := OpenReward(roles, 4); got != 0 {
		t.Errorf("fifth opening must pay nothing, got %d", got)
	}
}

func TestOpenReward_SumsAcrossRoles(t *testing.T) {
	roles := []string{"Business Tier 0", "Business Tier 1"}
	want := (150 - 0) + (500 - 0)
	if got := OpenReward(roles, 0); got != want {
		t.Errorf("expected combined reward %d, got %d", want, got)
	}
}
