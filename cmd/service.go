package main

import (
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"
)

// git commit used for this build; supplied at compile time
var gitCommit string

type serviceVersion struct {
	BuildVersion string `json:"build,omitempty"`
	GoVersion    string `json:"go_version,omitempty"`
	GitCommit    string `json:"git_commit,omitempty"`
}

type serviceIdentity struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Facets      int    `json:"facets"`
}

type serviceTranslations struct {
	bundle *i18n.Bundle
}

type serviceMetrics struct {
	registers        prometheus.Gauge
	refreshOutcomes  *prometheus.CounterVec
	catalogueAgeSecs prometheus.GaugeFunc
}

type serviceContext struct {
	randomSource *rand.Rand
	config       *serviceConfig
	translations serviceTranslations
	version      serviceVersion
	store        *catalogueStore
	loader       *catalogueLoader
	metrics      serviceMetrics
	refreshLock  sync.Mutex // single-writer discipline for refreshes
}

func (p *serviceContext) initVersion() {
	buildVersion := "unknown"
	files, _ := filepath.Glob("buildtag.*")
	if len(files) == 1 {
		buildVersion = strings.Replace(files[0], "buildtag.", "", 1)
	}

	p.version = serviceVersion{
		BuildVersion: buildVersion,
		GoVersion:    fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
		GitCommit:    gitCommit,
	}

	log.Printf("[SERVICE] version.BuildVersion = [%s]", p.version.BuildVersion)
	log.Printf("[SERVICE] version.GoVersion    = [%s]", p.version.GoVersion)
	log.Printf("[SERVICE] version.GitCommit    = [%s]", p.version.GitCommit)
}

func (p *serviceContext) initTranslations() {
	defaultLang := language.English

	bundle := i18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	toml, _ := filepath.Glob("i18n/*.toml")
	for _, f := range toml {
		bundle.MustLoadMessageFile(f)
	}

	p.translations = serviceTranslations{
		bundle: bundle,
	}
}

func (p *serviceContext) initLoader() {
	connTimeout := integerWithMinimum(p.config.Source.ConnTimeout, 5)
	readTimeout := integerWithMinimum(p.config.Source.ReadTimeout, 5)

	client := &http.Client{
		Timeout: time.Duration(readTimeout) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   time.Duration(connTimeout) * time.Second,
				KeepAlive: 60 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	p.loader = &catalogueLoader{
		client:     client,
		refURL:     p.config.Source.RefURL,
		archiveURL: p.config.Source.ArchiveURL,
		localDir:   p.config.Source.LocalDir,
	}

	log.Printf("[SERVICE] source.refURL     = [%s]", p.loader.refURL)
	log.Printf("[SERVICE] source.archiveURL = [%s]", p.loader.archiveURL)
	log.Printf("[SERVICE] source.localDir   = [%s]", p.loader.localDir)
}

func (p *serviceContext) initMetrics() {
	p.metrics.registers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "register_finder_catalogue_registers",
		Help: "Number of confirmed registers in the live catalogue.",
	})

	p.metrics.refreshOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "register_finder_refresh_outcomes_total",
		Help: "Catalogue refresh attempts by outcome.",
	}, []string{"status", "source"})

	p.metrics.catalogueAgeSecs = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "register_finder_catalogue_age_seconds",
		Help: "Age of the live catalogue snapshot.",
	}, func() float64 {
		snap := p.store.snapshot()
		if snap == nil {
			return -1
		}
		return time.Since(snap.loadedAt).Seconds()
	})

	prometheus.MustRegister(p.metrics.registers, p.metrics.refreshOutcomes, p.metrics.catalogueAgeSecs)
}

// refreshCatalogue runs one refresh pass and, on success, publishes
// the new snapshot.  queries running concurrently keep reading the old
// generation until the single pointer swap.
func (p *serviceContext) refreshCatalogue() refreshOutcome {
	p.refreshLock.Lock()
	defer p.refreshLock.Unlock()

	currentRef := ""
	if snap := p.store.snapshot(); snap != nil {
		currentRef = snap.ref
	}

	snap, outcome := p.loader.load(currentRef)

	if snap != nil {
		p.store.swap(snap)
		p.metrics.registers.Set(float64(len(snap.registers)))
	}

	p.metrics.refreshOutcomes.WithLabelValues(outcome.Status, outcome.Source).Inc()

	log.Printf("[REFRESH] status=%s source=%s ref=[%s] registers=%d reason=[%s]",
		outcome.Status, outcome.Source, outcome.Ref, outcome.Registers, outcome.Reason)

	return outcome
}

// monitorCatalogue periodically refreshes the catalogue in the
// background.
func (p *serviceContext) monitorCatalogue(interval int) {
	for {
		time.Sleep(time.Duration(interval) * time.Second)
		p.refreshCatalogue()
	}
}

func (p *serviceContext) validateConfig() {
	invalid := false

	var messageIDs stringValidator
	var miscValues stringValidator

	miscValues.requireValue(p.config.Service.Port, "service port")
	miscValues.requireValue(p.config.Source.LocalDir, "source local dir")

	messageIDs.requireValue(p.config.Identity.NameXID, "identity name xid")
	messageIDs.requireValue(p.config.Identity.DescXID, "identity description xid")

	messageIDs.addValue("BucketSuggested")
	messageIDs.addValue("BucketRecommended")
	messageIDs.addValue("BucketOther")

	for _, facet := range allFacets {
		messageIDs.addValue(facetMessageID(facet))
	}

	// remote source is optional (local-only deploys exist), but must be
	// complete and well-formed when present

	if p.config.Source.RefURL != "" || p.config.Source.ArchiveURL != "" {
		miscValues.requireURL(p.config.Source.RefURL, "source ref url")
		miscValues.requireURL(p.config.Source.ArchiveURL, "source archive url")
	}

	// validate xids can actually be translated

	langs := []string{}
	tags := p.translations.bundle.LanguageTags()

	for _, tag := range tags {
		lang := tag.String()
		langs = append(langs, lang)
		localizer := i18n.NewLocalizer(p.translations.bundle, lang)
		for _, id := range messageIDs.Values() {
			if _, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: id}); err != nil {
				log.Printf("[VALIDATE] [%s] missing translation for message ID: [%s] (%s)", lang, id, err.Error())
				invalid = true
			}
		}
	}

	if invalid || messageIDs.Invalid() || miscValues.Invalid() {
		log.Printf("[VALIDATE] exiting due to missing/incorrect field value(s) above")
		os.Exit(1)
	}

	log.Printf("[SERVICE] supported languages = [%s]", strings.Join(langs, ", "))
}

func facetMessageID(facet string) string {
	switch facet {
	case facetCoverage:
		return "FacetCoverage"
	case facetSubnational:
		return "FacetSubnational"
	case facetStructure:
		return "FacetStructure"
	case facetSubstructure:
		return "FacetSubstructure"
	case facetSector:
		return "FacetSector"
	}

	return ""
}

func initializeService(cfg *serviceConfig) *serviceContext {
	p := serviceContext{}

	p.config = cfg
	p.randomSource = rand.New(rand.NewSource(time.Now().UnixNano()))
	p.store = &catalogueStore{}

	p.initTranslations()
	p.initVersion()
	p.initLoader()
	p.initMetrics()

	p.validateConfig()

	// initial load; an empty catalogue is tolerable (healthcheck will
	// say so) but normal deploys come up from the local copy at worst
	if outcome := p.refreshCatalogue(); outcome.Status != refreshLoaded {
		log.Printf("[SERVICE] initial catalogue load did not complete: %s", outcome.Reason)
	}

	if interval := integerWithMinimum(p.config.Source.RefreshInterval, 0); interval > 0 {
		log.Printf("[SERVICE] background refresh every %d seconds", interval)
		go p.monitorCatalogue(interval)
	}

	return &p
}
