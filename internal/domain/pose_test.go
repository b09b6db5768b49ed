package domain

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestWrapAngle(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{5 * math.Pi, math.Pi},
	}

	for _, tc := range cases {
		if got := WrapAngle(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("WrapAngle(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPoseBearingTo(t *testing.T) {
	p := Pose{Position: orb.Point{1, 1}}

	if got := p.BearingTo(orb.Point{2, 1}); math.Abs(got) > 1e-12 {
		t.Errorf("bearing east = %v, want 0", got)
	}
	if got := p.BearingTo(orb.Point{1, 2}); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("bearing north = %v, want pi/2", got)
	}
}

func TestPoseDistanceTo(t *testing.T) {
	p := Pose{Position: orb.Point{0, 0}}
	if got := p.DistanceTo(orb.Point{3, 4}); math.Abs(got-5) > 1e-12 {
		t.Errorf("distance = %v, want 5", got)
	}
}

func TestRunOutcomeExitCode(t *testing.T) {
	cases := []struct {
		status RunStatus
		want   int
	}{
		{StatusSucceeded, 0},
		{StatusFailed, 1},
		{StatusTimedOut, 2},
	}

	for _, tc := range cases {
		o := RunOutcome{Status: tc.status}
		if got := o.ExitCode(); got != tc.want {
			t.Errorf("ExitCode(%s) = %d, want %d", tc.status, got, tc.want)
		}
	}
}
