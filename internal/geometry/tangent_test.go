package geometry

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func TestNewTangentArm(t *testing.T) {
	arm, err := NewTangentArm(500.0)
	if err != nil {
		t.Fatalf("NewTangentArm(500) error: %v", err)
	}
	if arm.Radius != 500.0 {
		t.Errorf("Radius = %v, want 500", arm.Radius)
	}

	for _, radius := range []float64{0, -1} {
		if _, err := NewTangentArm(radius); !errors.Is(err, ErrInvalidRadius) {
			t.Errorf("NewTangentArm(%v) error = %v, want ErrInvalidRadius", radius, err)
		}
	}
}

func TestTangentArm_KnownValues(t *testing.T) {
	arm := TangentArm{Radius: DefaultArmRadius}

	tests := []struct {
		travel    float64
		wantAngle float64
	}{
		{0, 0},
		{DefaultArmRadius, 45},       // travel equal to radius
		{-DefaultArmRadius, -45},     // symmetric about zero
		{DefaultArmRadius * math.Sqrt(3), 60}, // tan(60) = sqrt(3)
	}

	for _, tt := range tests {
		got := arm.Angle(tt.travel)
		if math.Abs(got-tt.wantAngle) > tolerance {
			t.Errorf("Angle(%v) = %v, want %v", tt.travel, got, tt.wantAngle)
		}
	}
}

func TestTangentArm_RoundTrip(t *testing.T) {
	arm := TangentArm{Radius: 500.0}

	for _, travel := range []float64{DefaultScrewLow, -1.5, 0, 0.01, 42.0, 125.0, DefaultScrewHigh} {
		angle := arm.Angle(travel)
		back := arm.Travel(angle)
		if math.Abs(back-travel) > 1e-6 {
			t.Errorf("Travel(Angle(%v)) = %v, want %v", travel, back, travel)
		}
	}
}

func TestTangentArm_CheckTravel(t *testing.T) {
	arm, err := NewTangentArm(500.0)
	if err != nil {
		t.Fatalf("NewTangentArm(500) error: %v", err)
	}

	for _, travel := range []float64{DefaultScrewLow, 0, 42.0, DefaultScrewHigh} {
		if err := arm.CheckTravel(travel); err != nil {
			t.Errorf("CheckTravel(%v) error = %v, want nil", travel, err)
		}
	}
	for _, travel := range []float64{DefaultScrewLow - 1, DefaultScrewHigh + 1, -300} {
		if err := arm.CheckTravel(travel); !errors.Is(err, ErrTravelRange) {
			t.Errorf("CheckTravel(%v) error = %v, want ErrTravelRange", travel, err)
		}
	}

	// Zero-value limits fall back to the defaults.
	bare := TangentArm{Radius: 500.0}
	if low, high := bare.Limits(); low != DefaultScrewLow || high != DefaultScrewHigh {
		t.Errorf("Limits() = (%v, %v), want defaults (%v, %v)", low, high, DefaultScrewLow, DefaultScrewHigh)
	}

	// Explicit limits override the defaults.
	narrow := TangentArm{Radius: 500.0, Low: -1, High: 1}
	if err := narrow.CheckTravel(2); !errors.Is(err, ErrTravelRange) {
		t.Errorf("CheckTravel(2) with limits (-1, 1) error = %v, want ErrTravelRange", err)
	}
	if err := narrow.CheckTravel(0.5); err != nil {
		t.Errorf("CheckTravel(0.5) with limits (-1, 1) error = %v, want nil", err)
	}
}

func TestTangentArm_SmallAngleScalesWithRadius(t *testing.T) {
	// For small travel the angle is approximately travel/radius in radians,
	// so doubling the radius halves the angle.
	small := TangentArm{Radius: 1000.0}
	large := TangentArm{Radius: 2000.0}

	a1 := small.Angle(1.0)
	a2 := large.Angle(1.0)
	if math.Abs(a1/a2-2.0) > 1e-6 {
		t.Errorf("angle ratio = %v, want 2.0", a1/a2)
	}
}
