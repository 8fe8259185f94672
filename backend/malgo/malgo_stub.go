//go:build !malgo

// SPDX-License-Identifier: EPL-2.0

package malgo

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ik5/capo/backend"
)

// New always fails in builds without the malgo tag.
func New(backend.Config, *log.Logger) (backend.Backend, error) {
	return nil, fmt.Errorf("%w: malgo support not enabled (build with -tags malgo)", backend.ErrUnavailable)
}

func init() {
	backend.Register(backend.Malgo, func(cfg backend.Config, logger *log.Logger) (backend.Backend, error) {
		return New(cfg, logger)
	})
}
