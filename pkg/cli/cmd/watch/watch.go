/* Copyright 2025 Folio Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package watch

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio-reader/folio/pkg/cli/config"
	folioctx "github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/output"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/spf13/cobra"
)

var example = `
  folio watch`

// configPollInterval is how often the config file is checked for changes
const configPollInterval = time.Second

// NewCmd returns a new watch command
func NewCmd(ctx folioctx.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Keep syncing in the background until interrupted",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	return cmd
}

// loop drives the periodic work of the watch command
type loop struct {
	rt  *infra.Runtime
	cfg config.Config

	stopProbe context.CancelFunc
}

// apply takes a reloaded configuration and reports which intervals changed
func (l *loop) apply(cf config.Config) (syncChanged, probeChanged bool) {
	syncChanged = cf.SyncInterval != l.cfg.SyncInterval
	probeChanged = cf.ProbeInterval != l.cfg.ProbeInterval

	if cf.APIEndpoint != l.cfg.APIEndpoint {
		log.Warnf("apiEndpoint changes take effect after restarting watch\n")
		cf.APIEndpoint = l.cfg.APIEndpoint
	}

	l.cfg = cf

	return syncChanged, probeChanged
}

func (l *loop) startProbe(c context.Context) {
	if l.stopProbe != nil {
		l.stopProbe()
	}

	pc, cancel := context.WithCancel(c)
	l.stopProbe = cancel

	go l.rt.Monitor.Run(pc, l.rt.Manager.Clock(), l.rt.Probe, l.cfg.ProbeInterval)
}

func (l *loop) run(c context.Context, configPath string) error {
	reload := make(chan config.Config, 1)
	go func() {
		err := config.Watch(c, configPath, configPollInterval, func(cf config.Config) {
			select {
			case <-reload:
			default:
			}
			reload <- cf
		})
		if err != nil {
			log.Warnf("not watching the config file: %s\n", err.Error())
		}
	}()

	l.startProbe(c)
	defer func() { l.stopProbe() }()

	l.rt.CheckConnectivity(c)
	l.rt.Manager.Sync(c)

	ticker := clock.NewTicker(l.rt.Manager.Clock(), l.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Done():
			return nil
		case <-ticker.C:
			l.rt.Manager.Sync(c)
		case cf := <-reload:
			syncChanged, probeChanged := l.apply(cf)
			if syncChanged {
				ticker.Reset(l.cfg.SyncInterval)
				log.Infof("syncing every %s\n", l.cfg.SyncInterval)
			}
			if probeChanged {
				l.startProbe(c)
				log.Infof("checking connectivity every %s\n", l.cfg.ProbeInterval)
			}
		}
	}
}

func newRun(ctx folioctx.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.Session.CurrentUserID() == "" {
			log.Error("not logged in\n")
			return nil
		}

		c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt := infra.NewRuntime(c, ctx, infra.RuntimeOptions{Retry: true})
		defer rt.Close()
		rt.Attach(c, ctx)

		offProgress := rt.Manager.Subscribe(output.SyncProgress)
		defer offProgress()
		offChange := rt.Monitor.OnChange(func(online bool) {
			if online {
				log.Info("online\n")
			} else {
				log.Warnf("offline, changes will be queued\n")
			}
		})
		defer offChange()

		l := &loop{
			rt: rt,
			cfg: config.Config{
				APIEndpoint:    ctx.APIEndpoint,
				SyncInterval:   ctx.SyncInterval,
				ProbeInterval:  ctx.ProbeInterval,
				DebounceWindow: ctx.DebounceWindow,
			},
		}

		log.Infof("watching, press Ctrl+C to stop\n")
		err := l.run(c, config.GetPath(ctx))
		log.Info("stopped\n")

		return err
	}
}
