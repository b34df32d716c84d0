// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Citadel-Finance/citadel-pool-go/api/pools"
	"github.com/Citadel-Finance/citadel-pool-go/api/utils"
	"github.com/Citadel-Finance/citadel-pool-go/factory"
	"github.com/Citadel-Finance/citadel-pool-go/log"
	"github.com/Citadel-Finance/citadel-pool-go/metrics"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableMetrics   bool
	EnableReqLogger bool
}

// New return api router
func New(f *factory.Factory, now pools.Clock, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	pools.New(f, now).Mount(router, "/pools")

	router.Path("/health").Methods(http.MethodGet).HandlerFunc(
		utils.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, utils.M{"healthy": true})
		}))

	if opts.EnableMetrics {
		router.Path("/metrics").Methods(http.MethodGet).Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = requestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP
}
