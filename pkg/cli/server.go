package cli

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/miission/scorecard/pkg/data"
	"github.com/miission/scorecard/pkg/metrics"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverPortDefault         = 8080

	datasetSelector = "|"
)

var (
	//go:embed templates/*
	embedFS embed.FS

	portFlag = &cli.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen",
		Value: serverPortDefault,
	}

	serverCmd = &cli.Command{
		Name:            "server",
		Aliases:         []string{"s"},
		Usage:           "Start local HTTP server with performance charts",
		HideHelpCommand: true,
		Action:          cmdStartServer,
		Flags: []cli.Flag{
			portFlag,
		},
	}
)

func cmdStartServer(c *cli.Context) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	address := fmt.Sprintf("127.0.0.1:%d", c.Int(portFlag.Name))

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(db),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("error starting server")
		}
	}()

	log.Info().Msgf("server started on http://%s", address)

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("error shutting down server")
	}
	return nil
}

func makeRouter(db *sql.DB) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	tmpl := template.Must(template.New("").ParseFS(embedFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", homeViewHandler(db))
	r.GET("/api/datasets", datasetsAPIHandler(db))
	r.GET("/api/eva", evaAPIHandler(db))
	r.GET("/api/psi", psiAPIHandler(db))

	return r
}

func homeViewHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := data.ListDatasets(db)
		if err != nil {
			log.Error().Err(err).Msg("failed to list datasets")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.HTML(http.StatusOK, "home", gin.H{
			"version":  version,
			"datasets": list,
		})
	}
}

func datasetsAPIHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := data.ListDatasets(db)
		if err != nil {
			log.Error().Err(err).Msg("failed to list datasets")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error listing datasets"})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// evaAPIHandler serves performance curves for a single scored dataset.
// Query params: d (dataset), p (prediction column), m (metrics), g (groups).
func evaAPIHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dataset := c.Query("d")
		pred := c.Query("p")
		if dataset == "" || pred == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "d and p query params are required"})
			return
		}

		labels, preds, err := data.ScoredPairs(db, dataset, pred)
		if err != nil {
			log.Error().Err(err).Msg("failed to load scored pairs")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error loading dataset"})
			return
		}

		groups, err := queryAsInt(c, "g", conf.GroupCount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		opts := metrics.EvaOptions{
			Title:      dataset,
			GroupCount: groups,
			Seed:       conf.Seed,
		}
		if m := c.Query("m"); m != "" {
			parsed, err := metrics.ParseMetrics(strings.Split(m, ","))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			opts.Metrics = parsed
		}

		res, err := metrics.EvaluatePerformance(labels, preds, opts)
		if err != nil {
			log.Error().Err(err).Msg("performance evaluation failed")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// psiAPIHandler compares score distributions across datasets.
// Query params: d (datasets joined with |, first is baseline), v (variables
// joined with |), t (tick width).
func psiAPIHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		names := splitQuery(c.Query("d"))
		if len(names) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least 2 datasets are required in d"})
			return
		}

		variables := splitQuery(c.Query("v"))
		pops := make([]metrics.Population, 0, len(names))
		for _, n := range names {
			pop, err := data.LoadPopulation(db, n, variables)
			if err != nil {
				log.Error().Err(err).Msgf("failed to load dataset %s", n)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "error loading dataset " + n})
				return
			}
			pops = append(pops, *pop)
		}

		tick, err := queryAsFloat(c, "t", conf.TickWidth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		opts := metrics.StabilityOptions{
			TickWidth: tick,
			Seed:      conf.Seed,
		}

		res, err := metrics.EvaluateStability(c.Query("title"), pops, opts)
		if err != nil {
			log.Error().Err(err).Msg("stability evaluation failed")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, datasetSelector)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryAsInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	i, err := parseGroups(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid query value for %s", key)
	}
	return i, nil
}

func queryAsFloat(c *gin.Context, key string, def float64) (float64, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f <= 0 {
		return 0, errors.Errorf("invalid query value for %s: %s", key, v)
	}
	return f, nil
}
