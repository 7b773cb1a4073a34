package roundintegrationtests

import (
	"log"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	oldAppEnv := os.Getenv("APP_ENV")
	os.Setenv("APP_ENV", "test")

	exitCode := m.Run()

	os.Setenv("APP_ENV", oldAppEnv)

	log.Println("Tearing down round test environment...")
	if testEnv != nil {
		testEnv.Cleanup()
	}
	log.Println("Round test environment teardown complete.")

	os.Exit(exitCode)
}
