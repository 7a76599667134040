package systems

import (
	"testing"

	"github.com/pthm-cable/organisms/config"
)

func testParams(t *testing.T) Params {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return ParamsFromConfig(cfg)
}
