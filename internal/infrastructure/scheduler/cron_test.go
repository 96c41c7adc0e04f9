package scheduler

import (
	"testing"
	"time"
)

func TestScheduleRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler(time.UTC)
	if err := c.Schedule("not a cron spec", func(time.Time) {}); err == nil {
		t.Fatal("invalid spec accepted")
	}
}

func TestScheduleRejectsNilJob(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler(time.UTC)
	if err := c.Schedule("* * * * *", nil); err == nil {
		t.Fatal("nil job accepted")
	}
}

func TestScheduleAcceptsStageSpecs(t *testing.T) {
	t.Parallel()

	c := NewCronScheduler(time.UTC)
	for _, spec := range []string{
		"0 */2 * * *", "0 10 * * 0", "0 8,14,20 * * *", "0 9 * * 2,5",
	} {
		if err := c.Schedule(spec, func(time.Time) {}); err != nil {
			t.Fatalf("spec %q rejected: %v", spec, err)
		}
	}
}
