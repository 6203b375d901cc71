/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartblock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ErrUnresolved indicates the rules could not produce a sequence.
var ErrUnresolved = errors.New("smart block could not satisfy constraints")

// Engine generates asset sequences from smart block rules.
type Engine struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a smart block engine instance.
func New(db *gorm.DB, logger zerolog.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// GenerateRequest describes materialization parameters.
type GenerateRequest struct {
	Definition Definition
	Seed       int64
	Target     time.Duration
	// Preceding lists asset ids already scheduled before the gap, oldest
	// first. They count for separation and are never picked again.
	Preceding []string
	// Avoid lists further asset ids that must not be picked.
	Avoid []string
}

// SequenceItem is a planned asset at an offset from the start of the gap.
type SequenceItem struct {
	Asset  models.Asset
	Offset time.Duration
	Energy float64
}

// GenerateResult returns the materialized sequence.
type GenerateResult struct {
	Items     []SequenceItem
	Total     time.Duration
	Exhausted bool
	Warnings  []string
}

// Generate materializes a sequence filling req.Target within the
// definition's tolerance.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if req.Target <= 0 {
		return GenerateResult{}, nil
	}
	def := req.Definition

	recent, err := e.recentAssets(ctx, req.Preceding)
	if err != nil {
		return GenerateResult{}, err
	}

	avoid := make(map[string]struct{}, len(req.Preceding)+len(req.Avoid))
	for _, id := range append(append([]string(nil), req.Preceding...), req.Avoid...) {
		avoid[id] = struct{}{}
	}

	candidates, err := e.fetchCandidates(ctx, def, avoid)
	if err != nil {
		return GenerateResult{}, err
	}
	if len(candidates) == 0 {
		return GenerateResult{}, ErrUnresolved
	}

	rng := rand.New(rand.NewSource(req.Seed))
	result := selectSequence(rng, candidates, def, recent, req.Target)
	if len(result.Items) == 0 {
		return GenerateResult{}, ErrUnresolved
	}

	e.logger.Debug().
		Int("candidates", len(candidates)).
		Int("selected", len(result.Items)).
		Dur("target", req.Target).
		Dur("total", result.Total).
		Strs("warnings", result.Warnings).
		Msg("smart block sequence generated")

	return result, nil
}

// recentAssets places the preceding assets back to back ending at offset
// zero, so the last one started at minus its own duration.
func (e *Engine) recentAssets(ctx context.Context, ids []string) (map[string]map[string]time.Duration, error) {
	recent := map[string]map[string]time.Duration{}
	if len(ids) == 0 {
		return recent, nil
	}

	var assets []models.Asset
	if err := e.db.WithContext(ctx).Where("id IN ?", ids).Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("load preceding assets: %w", err)
	}
	byID := make(map[string]models.Asset, len(assets))
	for _, asset := range assets {
		byID[asset.ID] = asset
	}

	var offset time.Duration
	for i := len(ids) - 1; i >= 0; i-- {
		asset, ok := byID[ids[i]]
		if !ok {
			continue
		}
		offset -= asset.Duration
		insertRecent(recent, "artist", asset.Artist, offset)
		insertRecent(recent, "title", asset.Title, offset)
		insertRecent(recent, "album", asset.Album, offset)
		insertRecent(recent, "label", asset.Label, offset)
	}
	return recent, nil
}

type candidate struct {
	Asset  models.Asset
	Score  float64
	Energy float64
}

func (e *Engine) fetchCandidates(ctx context.Context, def Definition, avoid map[string]struct{}) ([]candidate, error) {
	query := e.db.WithContext(ctx).Model(&models.Asset{}).Where("duration > ?", 0)

	for _, rule := range def.Include {
		query = applyFilterRule(query, rule, true)
	}
	for _, rule := range def.Exclude {
		query = applyFilterRule(query, rule, false)
	}

	var assets []models.Asset
	if err := query.Order("id ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}

	candidates := make([]candidate, 0, len(assets))
	for _, asset := range assets {
		if _, skip := avoid[asset.ID]; skip {
			continue
		}
		if !matchesFilters(asset, def.Include, true) || !matchesFilters(asset, def.Exclude, false) {
			continue
		}
		candidates = append(candidates, candidate{
			Asset:  asset,
			Energy: deriveEnergy(asset),
			Score:  baseScore(asset, def.Weights),
		})
	}
	return candidates, nil
}

func applyFilterRule(query *gorm.DB, rule FilterRule, positive bool) *gorm.DB {
	field := strings.ToLower(rule.Field)
	value := rule.Value

	cond := func(clause string, args ...any) *gorm.DB {
		if positive {
			return query.Where(clause, args...)
		}
		return query.Where("NOT ("+clause+")", args...)
	}

	switch field {
	case "genre", "mood", "language", "album", "title", "label":
		return cond("LOWER("+field+") = ?", strings.ToLower(toString(value)))
	case "artist":
		return cond(normalizedSQLExpr("artist")+" = ?", normalizeMatchText(toString(value)))
	case "text_search":
		searchText := toString(value)
		if searchText == "" {
			return query
		}
		pattern := "%" + strings.ToLower(searchText) + "%"
		normPattern := "%" + normalizeMatchText(searchText) + "%"
		searchClause := fmt.Sprintf(
			"(LOWER(title) LIKE ? OR LOWER(artist) LIKE ? OR LOWER(album) LIKE ? OR %s LIKE ? OR %s LIKE ? OR %s LIKE ?)",
			normalizedSQLExpr("title"),
			normalizedSQLExpr("artist"),
			normalizedSQLExpr("album"),
		)
		return cond(searchClause, pattern, pattern, pattern, normPattern, normPattern, normPattern)
	case "explicit":
		return cond("explicit = ?", toBool(value))
	}

	// Range rules are evaluated in memory; a negated range cannot be
	// expressed as independent bound clauses.
	return query
}

func baseScore(asset models.Asset, weights []WeightRule) float64 {
	score := 1.0
	for _, weight := range weights {
		if matchesWeight(asset, weight) {
			score += weight.Weight
		}
	}
	return score
}

func matchesWeight(asset models.Asset, weight WeightRule) bool {
	switch strings.ToLower(weight.Field) {
	case "genre":
		return strings.EqualFold(asset.Genre, toString(weight.Value))
	case "mood":
		return strings.EqualFold(asset.Mood, toString(weight.Value))
	case "artist":
		return normalizeMatchText(asset.Artist) == normalizeMatchText(toString(weight.Value))
	case "language":
		return strings.EqualFold(asset.Language, toString(weight.Value))
	case "new_release":
		if days := toFloat(weight.Value); days > 0 {
			return time.Since(asset.CreatedAt) <= time.Duration(days*24*float64(time.Hour))
		}
	}
	return false
}

func deriveEnergy(asset models.Asset) float64 {
	if asset.BPM > 0 {
		return asset.BPM
	}
	return 100
}

// selectSequence picks candidates until target is reached. No pick may
// push the total past target plus tolerance; the run ends early when
// nothing fits.
func selectSequence(rng *rand.Rand, candidates []candidate, def Definition, recent map[string]map[string]time.Duration, target time.Duration) GenerateResult {
	remaining := make([]candidate, len(candidates))
	copy(remaining, candidates)

	tolerance := def.Duration.Tolerance()
	windows := def.Separation.SeparationDurations()
	quotaState := newQuotaState(def.Quotas)
	var result GenerateResult
	var cursor time.Duration

	curve := def.Sequence.Curve
	for idx := 0; len(remaining) > 0 && cursor < target; idx++ {
		targetEnergy := 0.0
		if len(curve) > 0 {
			targetEnergy = curve[idx%len(curve)]
		}

		limit := target + tolerance - cursor
		selectedIdx := selectCandidate(rng, remaining, quotaState, targetEnergy, func(c candidate) bool {
			return c.Asset.Duration <= limit && !violatesSeparation(c.Asset, recent, windows, cursor)
		})
		if selectedIdx == -1 {
			break
		}

		sel := remaining[selectedIdx]
		result.Items = append(result.Items, SequenceItem{
			Asset:  sel.Asset,
			Offset: cursor,
			Energy: sel.Energy,
		})
		insertRecent(recent, "artist", sel.Asset.Artist, cursor)
		insertRecent(recent, "title", sel.Asset.Title, cursor)
		insertRecent(recent, "album", sel.Asset.Album, cursor)
		insertRecent(recent, "label", sel.Asset.Label, cursor)
		cursor += sel.Asset.Duration
		quotaState.observe(sel.Asset)

		remaining = append(remaining[:selectedIdx], remaining[selectedIdx+1:]...)
	}

	result.Total = cursor
	if cursor < target-tolerance {
		result.Exhausted = true
		result.Warnings = append(result.Warnings, "underfilled_target")
	}
	result.Warnings = append(result.Warnings, quotaState.warnings()...)

	return result
}

func selectCandidate(rng *rand.Rand, candidates []candidate, quotaState *quotaState, targetEnergy float64, fits func(candidate) bool) int {
	type scored struct {
		idx   int
		score float64
	}

	scoredList := make([]scored, 0, len(candidates))
	for idx, cand := range candidates {
		if !fits(cand) || !quotaState.canSelect(cand.Asset) {
			continue
		}

		score := cand.Score
		if targetEnergy > 0 {
			deviation := math.Abs(targetEnergy - cand.Energy)
			score += 1 / (1 + deviation)
		}
		score += rng.Float64() * 0.1

		scoredList = append(scoredList, scored{idx: idx, score: score})
	}

	if len(scoredList) == 0 {
		return -1
	}

	sort.SliceStable(scoredList, func(i, j int) bool { return scoredList[i].score > scoredList[j].score })
	return scoredList[0].idx
}

// quotaState tracks quota satisfaction progress.
type quotaState struct {
	rules  []QuotaRule
	counts []int
}

func newQuotaState(rules []QuotaRule) *quotaState {
	return &quotaState{
		rules:  rules,
		counts: make([]int, len(rules)),
	}
}

func (q *quotaState) canSelect(asset models.Asset) bool {
	for idx, rule := range q.rules {
		if rule.Max > 0 && q.counts[idx] >= rule.Max && matchesQuota(rule, asset) {
			return false
		}
	}
	return true
}

func (q *quotaState) observe(asset models.Asset) {
	for idx, rule := range q.rules {
		if matchesQuota(rule, asset) {
			q.counts[idx]++
		}
	}
}

func (q *quotaState) warnings() []string {
	var alerts []string
	for idx, rule := range q.rules {
		if rule.Min > 0 && q.counts[idx] < rule.Min {
			alerts = append(alerts, "quota_min_unmet:"+rule.Field)
		}
	}
	return alerts
}

func matchesQuota(rule QuotaRule, asset models.Asset) bool {
	if len(rule.Values) == 0 {
		return true
	}
	switch strings.ToLower(rule.Field) {
	case "genre":
		return contains(rule.Values, asset.Genre)
	case "mood":
		return contains(rule.Values, asset.Mood)
	case "label":
		return contains(rule.Values, asset.Label)
	case "language":
		return contains(rule.Values, asset.Language)
	case "artist":
		return containsNormalized(rule.Values, asset.Artist)
	case "explicit":
		return asset.Explicit == strings.EqualFold(rule.Values[0], "true")
	}
	return false
}

func contains(values []string, candidate string) bool {
	for _, value := range values {
		if strings.EqualFold(value, candidate) {
			return true
		}
	}
	return false
}

func containsNormalized(values []string, candidate string) bool {
	normCandidate := normalizeMatchText(candidate)
	for _, value := range values {
		if normalizeMatchText(value) == normCandidate {
			return true
		}
	}
	return false
}

var matchNormalizer = strings.NewReplacer(
	" ", "",
	".", "",
	"-", "",
	"_", "",
	"'", "",
	"\"", "",
	"/", "",
	"\\", "",
	"(", "",
	")", "",
	"[", "",
	"]", "",
	",", "",
	";", "",
	":", "",
)

func normalizeMatchText(s string) string {
	return matchNormalizer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func normalizedSQLExpr(col string) string {
	return fmt.Sprintf(
		`REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(LOWER(%s), ' ', ''), '.', ''), '-', ''), '_', ''), '''', ''), '"', ''), '/', ''), '\\', ''), '(', ''), ')', ''), '[', ''), ']', ''), ',', ''), ';', '')`,
		col,
	)
}

func insertRecent(recent map[string]map[string]time.Duration, key, value string, offset time.Duration) {
	if value == "" {
		return
	}
	value = normalizeMatchText(value)
	if recent[key] == nil {
		recent[key] = map[string]time.Duration{}
	}
	if existing, ok := recent[key][value]; !ok || offset > existing {
		recent[key][value] = offset
	}
}

// violatesSeparation reports whether asset would start at cursor too soon
// after an item sharing one of its separated fields.
func violatesSeparation(asset models.Asset, recent map[string]map[string]time.Duration, windows map[string]time.Duration, cursor time.Duration) bool {
	fields := map[string]string{
		"artist": asset.Artist,
		"title":  asset.Title,
		"album":  asset.Album,
		"label":  asset.Label,
	}
	for key, value := range fields {
		dur := windows[key]
		if dur <= 0 || value == "" {
			continue
		}
		if last, ok := recent[key][normalizeMatchText(value)]; ok && cursor-last < dur {
			return true
		}
	}
	return false
}

func toFloatRange(value any) [2]float64 {
	var out [2]float64
	switch v := value.(type) {
	case []any:
		if len(v) > 0 {
			out[0] = toFloat(v[0])
		}
		if len(v) > 1 {
			out[1] = toFloat(v[1])
		}
	case map[string]any:
		out[0] = toFloat(v["min"])
		out[1] = toFloat(v["max"])
	}
	return out
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func toBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || v == "1"
	case float64:
		return v != 0
	default:
		return false
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// matchesFilters reports whether every rule holds for asset. Exclude
// lists are checked with positive=false, which requires no rule to match.
func matchesFilters(asset models.Asset, rules []FilterRule, positive bool) bool {
	for _, rule := range rules {
		match, known := evaluateFilter(asset, rule)
		if known && match != positive {
			return false
		}
	}
	return true
}

// evaluateFilter reports whether rule matches asset. Unknown fields are
// reported as not known and ignored by callers.
func evaluateFilter(asset models.Asset, rule FilterRule) (match, known bool) {
	return evaluateField(asset, rule), knownFields[strings.ToLower(rule.Field)]
}

var knownFields = map[string]bool{
	"genre": true, "mood": true, "artist": true, "title": true, "album": true,
	"label": true, "language": true, "explicit": true, "text_search": true,
	"bpm": true, "year": true, "asset": true,
}

func evaluateField(asset models.Asset, rule FilterRule) bool {
	switch strings.ToLower(rule.Field) {
	case "genre":
		return strings.EqualFold(asset.Genre, toString(rule.Value))
	case "mood":
		return strings.EqualFold(asset.Mood, toString(rule.Value))
	case "artist":
		return normalizeMatchText(asset.Artist) == normalizeMatchText(toString(rule.Value))
	case "title":
		return strings.EqualFold(asset.Title, toString(rule.Value))
	case "album":
		return strings.EqualFold(asset.Album, toString(rule.Value))
	case "label":
		return strings.EqualFold(asset.Label, toString(rule.Value))
	case "language":
		return strings.EqualFold(asset.Language, toString(rule.Value))
	case "explicit":
		return asset.Explicit == toBool(rule.Value)
	case "text_search":
		needle := normalizeMatchText(toString(rule.Value))
		if needle == "" {
			return true
		}
		for _, field := range []string{asset.Title, asset.Artist, asset.Album} {
			if strings.Contains(normalizeMatchText(field), needle) {
				return true
			}
		}
		return false
	case "bpm":
		return inRange(asset.BPM, toFloatRange(rule.Value))
	case "year":
		return inRange(float64(asset.Year), toFloatRange(rule.Value))
	case "asset":
		if ids, ok := toStringSlice(rule.Value); ok {
			return contains(ids, asset.ID)
		}
		return asset.ID == toString(rule.Value)
	}
	return false
}

// inRange treats a zero bound as open. A fully open range requires a
// non-zero value.
func inRange(value float64, bounds [2]float64) bool {
	lo, hi := bounds[0], bounds[1]
	if lo == 0 && hi == 0 {
		return value > 0
	}
	if lo != 0 && value < lo {
		return false
	}
	if hi != 0 && value > hi {
		return false
	}
	return true
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}
