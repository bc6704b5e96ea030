package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

var (
	multi    *pterm.MultiPrinter
	spinners = make(map[string]*pterm.SpinnerPrinter)
	mu       sync.Mutex
)

func StartUISystem() {
	m, _ := pterm.DefaultMultiPrinter.Start()
	multi = m
}

func StopUISystem() {
	mu.Lock()
	defer mu.Unlock()
	for label, spinner := range spinners {
		_ = spinner.Stop()
		delete(spinners, label)
	}
	if multi != nil {
		_, _ = multi.Stop()
		multi = nil
	}
}

// UpdateStatus shows status on the spinner line owned by label. It is a no-op
// until StartUISystem has run.
func UpdateStatus(label, status string, remainingDelay time.Duration) {
	mu.Lock()
	defer mu.Unlock()

	if multi == nil {
		return
	}

	content := fmt.Sprintf("[%s] %s", label, status)
	if remainingDelay > 0 {
		content = fmt.Sprintf("%s (%s)", content, FormatDelay(remainingDelay))
	}

	if spinner, ok := spinners[label]; ok {
		spinner.UpdateText(content)
		return
	}
	spinner, err := pterm.DefaultSpinner.
		WithWriter(multi.NewWriter()).
		WithRemoveWhenDone(false).
		Start(content)
	if err == nil {
		spinners[label] = spinner
	}
}

func SetSpinnerSuccess(label, finalMessage string) {
	mu.Lock()
	defer mu.Unlock()
	if spinner, ok := spinners[label]; ok {
		spinner.Success(finalMessage)
		delete(spinners, label)
	}
}

func SetSpinnerError(label, finalMessage string) {
	mu.Lock()
	defer mu.Unlock()
	if spinner, ok := spinners[label]; ok {
		spinner.Fail(finalMessage)
		delete(spinners, label)
	}
}

func FormatDelay(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d H %02d M %02d S", h, m, s)
}

func defaultString(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
