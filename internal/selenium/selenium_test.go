package selenium

import (
	"slices"
	"testing"
)

func TestOptions(t *testing.T) {
	t.Parallel()

	o := Defaults("/cache/selenium")
	o.JavaOptions = []string{"-Dwebdriver.chrome.driver=/usr/bin/chromedriver"}

	want := []string{
		"-Dwebdriver.chrome.driver=/usr/bin/chromedriver",
		"-jar", "/cache/selenium/selenium-server-standalone-3.141.59.jar",
		"-host", "127.0.0.1",
		"-port", "4445",
	}
	if got := o.Args(4445); !slices.Equal(got, want) {
		t.Errorf("Args(4445) = %v, want %v", got, want)
	}
	// Args must not alias JavaOptions.
	_ = o.Args(1)
	if len(o.JavaOptions) != 1 {
		t.Errorf("JavaOptions modified: %v", o.JavaOptions)
	}

	if !o.ReadyPattern.MatchString("INFO [SeleniumServer.boot] - Selenium Server is up and running on port 4444") {
		t.Error("ready pattern does not match the boot banner")
	}

	svc := o.Service()
	if !svc.MergeStderr || !svc.ConfirmListening || svc.Port != DefaultPort {
		t.Errorf("Service = %+v", svc)
	}
	if err := o.Artifact(nil).Validate(); err != nil {
		t.Errorf("Artifact.Validate: %v", err)
	}
}
