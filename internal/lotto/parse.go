package lotto

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GameResult is one draw. The JSON field names match the history file.
type GameResult struct {
	GameNumber int    `json:"gameNumber"`
	GameDate   string `json:"gameDate"` // YYYY/MM/DD
	GameResult []int  `json:"gameResult"`
}

var ErrMalformedPage = errors.New("malformed result page")

const (
	selGameNumber = "div.win_result h4 strong"
	selGameDate   = "div.win_result p"
	selWinNumbers = "div.win_result div.nums div.num.win p span.ball_645"
)

var (
	reGameNumber = regexp.MustCompile(`(\d+)`)
	reGameDate   = regexp.MustCompile(`(\d{4}).+(\d{2}).+(\d{2})`)
)

// Parse extracts a GameResult from a draw result page.
func Parse(r io.Reader) (GameResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return GameResult{}, fmt.Errorf("parse html: %w", err)
	}

	var g GameResult
	m := reGameNumber.FindStringSubmatch(doc.Find(selGameNumber).First().Text())
	if m == nil {
		return GameResult{}, fmt.Errorf("%w: no game number", ErrMalformedPage)
	}
	g.GameNumber, _ = strconv.Atoi(m[1])

	m = reGameDate.FindStringSubmatch(doc.Find(selGameDate).First().Text())
	if m == nil {
		return GameResult{}, fmt.Errorf("%w: game %d: no draw date", ErrMalformedPage, g.GameNumber)
	}
	g.GameDate = m[1] + "/" + m[2] + "/" + m[3]

	var parseErr error
	doc.Find(selWinNumbers).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil {
			parseErr = fmt.Errorf("%w: game %d: ball %q", ErrMalformedPage, g.GameNumber, s.Text())
			return false
		}
		g.GameResult = append(g.GameResult, n)
		return true
	})
	if parseErr != nil {
		return GameResult{}, parseErr
	}
	if len(g.GameResult) == 0 {
		return GameResult{}, fmt.Errorf("%w: game %d: no winning numbers", ErrMalformedPage, g.GameNumber)
	}
	sort.Ints(g.GameResult)
	return g, nil
}
