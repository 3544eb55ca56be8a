// Package webapi serves a small HTTP API to inspect the shop status and
// press buttons remotely.
package webapi

import (
	"context"
	"net/http"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/buttons"
	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{"package": "webapi"})

// PairingAction is the button that has to be pressed to obtain a token.
const PairingAction = shop.ActionClearCheckin

// Controller is the part of the controller used by the API.
type Controller interface {
	State() shop.Snapshot
	Submit(event buttons.Event) bool
	WaitForPress(ctx context.Context, action shop.Action) bool
}

// History answers press count queries, see metrics.Influx.
type History interface {
	Presses(action shop.Action, from, to time.Time, bucket time.Duration) ([][]interface{}, error)
}

const (
	defaultHistoryRange  = 24 * time.Hour
	defaultHistoryBucket = time.Hour
)

type generic map[string]interface{}

type Server struct {
	echo          *echo.Echo
	controller    Controller
	tokens        *TokenStore
	history       History
	buttonTimeout time.Duration
}

// NewServer sets up the routes. history may be nil, in which case the
// press history is unavailable.
func NewServer(controller Controller, tokens *TokenStore, gatherer prometheus.Gatherer, history History) *Server {
	s := &Server{
		echo:          echo.New(),
		controller:    controller,
		tokens:        tokens,
		history:       history,
		buttonTimeout: 5 * time.Second,
	}
	e := s.echo
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.GET("/api/register", s.getToken)
	e.GET("/api/status", s.getStatus, s.authorize)
	e.POST("/api/press/:action", s.postPress, s.authorize)
	e.GET("/api/presses/:action", s.getPresses, s.authorize)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	log.WithFields(logrus.Fields{"addr": addr}).Info("Starting web API")
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get("Authorization")
		if !s.tokens.Verify(token) {
			return c.JSON(http.StatusUnauthorized, generic{"err": "Unauthorized"})
		}
		return next(c)
	}
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, generic{"err": nil, "state": s.controller.State()})
}

func (s *Server) postPress(c echo.Context) error {
	action, err := shop.ParseAction(c.Param("action"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, generic{"err": err.Error()})
	}
	queued := s.controller.Submit(buttons.Event{Action: action, Source: buttons.SourceAPI})
	if !queued {
		return c.JSON(http.StatusServiceUnavailable, generic{"err": "Queue full"})
	}
	return c.JSON(http.StatusAccepted, generic{"err": nil, "action": action})
}

// getPresses returns the successful presses of an action per bucket. from
// and to are RFC 3339 times, bucket is a duration such as "15m".
func (s *Server) getPresses(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusNotFound, generic{"err": "No history configured"})
	}
	action, err := shop.ParseAction(c.Param("action"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, generic{"err": err.Error()})
	}

	to := time.Now()
	if value := c.QueryParam("to"); value != "" {
		if to, err = time.Parse(time.RFC3339, value); err != nil {
			return c.JSON(http.StatusBadRequest, generic{"err": "Invalid 'to'"})
		}
	}
	from := to.Add(-defaultHistoryRange)
	if value := c.QueryParam("from"); value != "" {
		if from, err = time.Parse(time.RFC3339, value); err != nil {
			return c.JSON(http.StatusBadRequest, generic{"err": "Invalid 'from'"})
		}
	}
	if !from.Before(to) {
		return c.JSON(http.StatusBadRequest, generic{"err": "'from' must be before 'to'"})
	}
	bucket := defaultHistoryBucket
	if value := c.QueryParam("bucket"); value != "" {
		if bucket, err = time.ParseDuration(value); err != nil {
			return c.JSON(http.StatusBadRequest, generic{"err": "Invalid 'bucket'"})
		}
	}
	if bucket < time.Second {
		return c.JSON(http.StatusBadRequest, generic{"err": "'bucket' must be at least 1s"})
	}

	values, err := s.history.Presses(action, from, to, bucket)
	if err != nil {
		log.WithFields(logrus.Fields{"err": err, "action": action}).Warn("History query failed")
		return c.JSON(http.StatusBadGateway, generic{"err": "History query failed"})
	}
	if values == nil {
		values = [][]interface{}{}
	}
	return c.JSON(http.StatusOK, generic{"err": nil, "action": action, "values": values})
}

// getToken hands out a token once the pairing button has been pressed.
func (s *Server) getToken(c echo.Context) error {
	timeout, cancel := context.WithTimeout(c.Request().Context(), s.buttonTimeout)
	defer cancel()
	if !s.controller.WaitForPress(timeout, PairingAction) {
		return c.JSON(http.StatusRequestTimeout, generic{"err": "Timeout"})
	}
	token, err := s.tokens.Generate()
	if err != nil {
		log.WithFields(logrus.Fields{"err": err}).Error("Failed to generate token")
		return c.JSON(http.StatusInternalServerError, generic{"err": "Token storage failed"})
	}
	return c.JSON(http.StatusOK, generic{"token": token})
}
