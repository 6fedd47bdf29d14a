package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type searchResponse struct {
	status int         // http status code
	data   interface{} // data to return as JSON
	err    error       // error, if any
}

// searchContext carries one query computation: the snapshot in effect
// for the whole request plus the parsed facet selection.
type searchContext struct {
	svc    *serviceContext
	client *clientContext
	snap   *catalogueSnapshot
	query  facetQuery
}

func (s *searchContext) init(p *serviceContext, c *clientContext) {
	s.svc = p
	s.client = c

	// one snapshot per request; a concurrent refresh swap never splits
	// the results and lookups across generations
	s.snap = p.store.snapshot()

	if c.ginCtx != nil {
		s.query = facetQuery{
			Coverage:     c.ginCtx.Query(facetCoverage),
			Subnational:  c.ginCtx.Query(facetSubnational),
			Structure:    c.ginCtx.Query(facetStructure),
			Substructure: c.ginCtx.Query(facetSubstructure),
			Sector:       c.ginCtx.Query(facetSector),
		}
	}
}

func (s *searchContext) log(format string, args ...interface{}) {
	s.client.log(format, args...)
}

type searchResults struct {
	Query     map[string]string `json:"query"`
	Results   resultBuckets     `json:"results"`
	Labels    map[string]string `json:"labels"`
	Lookups   facetLookups      `json:"lookups"`
	Total     int               `json:"total"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

func (s *searchContext) handleSearchRequest() searchResponse {
	if s.snap == nil {
		return searchResponse{status: http.StatusServiceUnavailable, err: errors.New("catalogue is not loaded yet")}
	}

	if s.query.isEmpty() {
		s.log("[SEARCH] unconstrained query")
	} else {
		s.log("[SEARCH] query: %v", s.query.asMap())
	}

	scored := scoreAndFilter(s.snap, s.query)
	buckets := bucketResults(scored)

	if s.client.opts.debug == true {
		for _, r := range scored {
			r.formatDebug()
		}
	}

	res := searchResults{
		Query:   s.query.asMap(),
		Results: buckets,
		Labels: map[string]string{
			"suggested":   s.client.localize("BucketSuggested"),
			"recommended": s.client.localize("BucketRecommended"),
			"other":       s.client.localize("BucketOther"),
		},
		Lookups:   validLookups(s.snap, s.query),
		Total:     buckets.total(),
		ElapsedMS: s.client.elapsedMS(),
	}

	s.log("[SEARCH] %d of %d registers match", res.Total, len(s.snap.registers))

	return searchResponse{status: http.StatusOK, data: res}
}

func (s *searchContext) handleRecordRequest(code string) searchResponse {
	if s.snap == nil {
		return searchResponse{status: http.StatusServiceUnavailable, err: errors.New("catalogue is not loaded yet")}
	}

	detail := s.snap.recordDetail(code)

	if detail == nil {
		return searchResponse{status: http.StatusNotFound, err: fmt.Errorf("register not found: [%s]", code)}
	}

	return searchResponse{status: http.StatusOK, data: detail}
}

func (p *serviceContext) searchHandler(c *gin.Context) {
	cl := clientContext{}
	cl.init(p, c)

	s := searchContext{}
	s.init(p, &cl)

	cl.logRequest()
	resp := s.handleSearchRequest()
	cl.logResponse(resp)

	if resp.err != nil {
		c.JSON(resp.status, gin.H{"error": resp.err.Error()})
		return
	}

	c.JSON(resp.status, resp.data)
}

func (p *serviceContext) registerHandler(c *gin.Context) {
	cl := clientContext{}
	cl.init(p, c)

	s := searchContext{}
	s.init(p, &cl)

	cl.logRequest()
	resp := s.handleRecordRequest(c.Param("code"))
	cl.logResponse(resp)

	if resp.err != nil {
		c.JSON(resp.status, gin.H{"error": resp.err.Error()})
		return
	}

	c.JSON(resp.status, resp.data)
}

func (p *serviceContext) refreshHandler(c *gin.Context) {
	cl := clientContext{}
	cl.init(p, c)

	cl.logRequest()

	outcome := p.refreshCatalogue()

	status := http.StatusOK
	if outcome.Status == refreshFailed {
		status = http.StatusBadGateway
	}

	cl.logResponse(searchResponse{status: status})

	c.JSON(status, outcome)
}

func (p *serviceContext) ignoreHandler(c *gin.Context) {
}

func (p *serviceContext) versionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, p.version)
}

func (p *serviceContext) identifyHandler(c *gin.Context) {
	cl := clientContext{}
	cl.init(p, c)

	c.JSON(http.StatusOK, cl.localizedIdentity(p))
}

func (p *serviceContext) healthCheckHandler(c *gin.Context) {
	type hcResp struct {
		Healthy bool   `json:"healthy"`
		Message string `json:"message,omitempty"`
	}

	internalServiceError := false

	hcCatalogue := hcResp{Healthy: true}

	snap := p.store.snapshot()

	if snap == nil {
		internalServiceError = true
		hcCatalogue = hcResp{Healthy: false, Message: "catalogue has not been loaded yet"}
	} else {
		hcCatalogue.Message = fmt.Sprintf("%d registers (%s, loaded %s)", len(snap.registers), snap.source, snap.loadedAt.Format("2006-01-02 15:04:05"))
	}

	hcMap := make(map[string]hcResp)
	hcMap["catalogue"] = hcCatalogue

	hcStatus := http.StatusOK
	if internalServiceError == true {
		hcStatus = http.StatusInternalServerError
	}

	c.JSON(hcStatus, hcMap)
}

func getBearerToken(authorization string) (string, error) {
	components := strings.Split(strings.Join(strings.Fields(authorization), " "), " ")

	// must have two components, the first of which is "Bearer", and the second a non-empty token
	if len(components) != 2 || components[0] != "Bearer" || components[1] == "" {
		return "", fmt.Errorf("invalid Authorization header: [%s]", authorization)
	}

	return components[1], nil
}

// authenticateHandler guards the refresh trigger with the deploy-time
// shared secret.  an unset secret disables the endpoint outright.
func (p *serviceContext) authenticateHandler(c *gin.Context) {
	secret := p.config.Service.RefreshSecret

	if secret == "" {
		log.Printf("refresh endpoint is disabled (no refresh secret configured)")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	token, err := getBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		log.Printf("authentication failed: [%s]", err.Error())
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		log.Printf("authentication failed: token mismatch")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
}
