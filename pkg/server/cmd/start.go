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

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio-reader/folio/pkg/server/buildinfo"
	"github.com/folio-reader/folio/pkg/server/config"
	"github.com/folio-reader/folio/pkg/server/controllers"
	"github.com/folio-reader/folio/pkg/server/database"
	"github.com/folio-reader/folio/pkg/server/jobs"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

func startCmd(args []string) {
	fs := setupFlagSet("start", "folio-server start")

	port := fs.String("port", "", "Server port (env: PORT, default: 3001)")
	dbDriver, dbPath := dbFlags(fs)
	logLevel := fs.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	envFile := fs.String("envFile", config.DefaultEnvFile, "Path to a dotenv file to load")

	fs.Parse(args)

	cfg, err := config.New(config.Params{
		Port:     *port,
		DBDriver: *dbDriver,
		DBPath:   *dbPath,
		LogLevel: *logLevel,
		EnvFile:  *envFile,
	})
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	log.SetLevel(cfg.LogLevel)

	a, err := initApp(cfg)
	if err != nil {
		log.ErrorWrap(err, "initializing app")
		os.Exit(1)
	}
	defer database.Close(a.DB)

	runner, err := jobs.NewRunner(jobs.Default(&a))
	if err != nil {
		log.ErrorWrap(err, "scheduling jobs")
		os.Exit(1)
	}
	runner.Start()
	defer runner.Stop()

	h, err := controllers.NewHandler(&a)
	if err != nil {
		panic(errors.Wrap(err, "initializing router"))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(log.Fields{
		"version":  buildinfo.Version,
		"port":     cfg.Port,
		"dbDriver": cfg.DBDriver,
	}).Info("Folio server starting")

	if err := serve(srv); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}

	log.Info("Folio server stopped")
}

// serve runs the server until it fails or the process is interrupted, in
// which case in-flight requests are given time to finish
func serve(srv *http.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
