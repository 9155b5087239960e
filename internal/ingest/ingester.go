package ingest

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"flakelens/internal/logging"
)

// Anchor patterns. Three independent families are scanned on every line
// so a log may mix dialects freely:
//   - per-class summary lines (surefire "Tests run: ..." with a class name)
//   - per-test failure blocks (bracketed, timestamped, or bare "Failures:" lists)
//   - the final BUILD SUCCESS/FAILURE marker
var (
	// [INFO] Tests run: 5, Failures: 1, Errors: 0, Skipped: 1, Time elapsed: 1.23 s -- in com.example.FooTest
	reClassSummary = regexp.MustCompile(`^\[(?:INFO|ERROR)\]\s+Tests run: (\d+), Failures: (\d+), Errors: (\d+), Skipped: (\d+)(?:, Time elapsed: ([0-9.]+) s)?.*?--? in ([\w.$]+)`)

	// Aggregate summary with no class name (unstructured dialect).
	reBareSummary = regexp.MustCompile(`^Tests run: (\d+), Failures: (\d+), Errors: (\d+)`)

	// [ERROR] testBar(com.example.FooTest)  Time elapsed: 0.012 s  <<< FAILURE!
	reSurefireFailOld = regexp.MustCompile(`^\[ERROR\]\s+([\w$]+)\(([\w.$]+)\)\s+Time elapsed: ([0-9.]+) s\s+<<< (FAILURE|ERROR)!`)

	// [ERROR] com.example.FooTest.testBar -- Time elapsed: 0.01 s <<< ERROR!
	reSurefireFailNew = regexp.MustCompile(`^\[ERROR\]\s+([\w.$]+)\s+--\s+Time elapsed: ([0-9.]+) s\s*<<< (FAILURE|ERROR)!`)

	// [12:34:56] FAIL com.example.FooTest.testBar (123ms)
	reTimestamped = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\]\s+(PASS|FAIL|ERROR|SKIP)\s+(\S+)(?:\s+\((\d+)\s*ms\))?`)

	// java.lang.AssertionError: expected:<1> but was:<2>
	reException = regexp.MustCompile(`([\w.]*(?:Exception|Error|Throwable)\b[^\r]*)`)

	// at com.example.Foo.bar(Foo.java:10)
	reStackFrame = regexp.MustCompile(`^\s*(?:\[\d{2}:\d{2}:\d{2}\]\s+|\[ERROR\]\s+)?(at [\w.$/<>]+\([^)]*\))`)

	reBuildSuccess = regexp.MustCompile(`BUILD SUCCESS`)
	reBuildFailure = regexp.MustCompile(`BUILD FAILURE`)

	// "  FooTest.testBar: some error text" inside a "Failures:" list.
	reFailureListEntry = regexp.MustCompile(`^\s+([\w.$]+)(?::\s*(.*))?$`)
)

// Parse reads one run's raw execution log and extracts ordered per-test
// records. Unmatched lines are ignored; Parse never fails on malformed
// input. A log yielding zero records returns a valid empty Run together
// with ErrNoRunData so the caller can decide whether that is fatal.
func Parse(runID string, r io.Reader) (*Run, error) {
	p := &parser{
		run:  &Run{ID: runID, Build: BuildUnknown},
		seen: map[string]int{},
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.line(sc.Text())
	}
	// Scanner errors (e.g. oversized lines) truncate, never fail the run.
	if err := sc.Err(); err != nil {
		logging.New("ingest").Warn("log scan stopped early", "run", runID, "err", err)
	}
	p.finish()

	if len(p.run.Records) == 0 {
		return p.run, ErrNoRunData
	}
	return p.run, nil
}

type parser struct {
	run  *Run
	seen map[string]int // test name -> index into run.Records

	// Pending failure record waiting for its exception line / stack frame.
	pending   *RunRecord
	pendingEx string

	inFailureList bool

	summaryFailures int // failures+errors promised by summary lines
	observedFails   int // failure records actually collected
}

func (p *parser) line(s string) {
	trimmed := strings.TrimRight(s, " \t")

	if reBuildSuccess.MatchString(trimmed) {
		p.run.Build = BuildSuccess
		p.inFailureList = false
		return
	}
	if reBuildFailure.MatchString(trimmed) {
		p.run.Build = BuildFailure
		p.inFailureList = false
		return
	}

	if m := reClassSummary.FindStringSubmatch(trimmed); m != nil {
		p.flushPending()
		p.inFailureList = false
		p.classSummary(m)
		return
	}

	if m := reSurefireFailOld.FindStringSubmatch(trimmed); m != nil {
		p.startFailure(m[2]+"."+m[1], outcomeFromMarker(m[4]), seconds(m[3]))
		return
	}
	if m := reSurefireFailNew.FindStringSubmatch(trimmed); m != nil {
		p.startFailure(m[1], outcomeFromMarker(m[3]), seconds(m[2]))
		return
	}

	if m := reTimestamped.FindStringSubmatch(trimmed); m != nil {
		p.flushPending()
		p.inFailureList = false
		ms, _ := strconv.ParseInt(m[3], 10, 64)
		rec := RunRecord{
			RunID:      p.run.ID,
			TestName:   m[2],
			Outcome:    Outcome(m[1]),
			DurationMs: ms,
		}
		if rec.Outcome == OutcomeFail || rec.Outcome == OutcomeError {
			p.pending = &rec
			p.observedFails++
		} else {
			p.add(rec)
		}
		return
	}

	if m := reBareSummary.FindStringSubmatch(trimmed); m != nil {
		p.flushPending()
		f, _ := strconv.Atoi(m[2])
		e, _ := strconv.Atoi(m[3])
		p.summaryFailures += f + e
		return
	}

	if strings.TrimSpace(trimmed) == "Failures:" || strings.TrimSpace(trimmed) == "Errors:" {
		p.flushPending()
		p.inFailureList = true
		return
	}

	if p.inFailureList {
		if strings.TrimSpace(trimmed) == "" {
			p.inFailureList = false
			return
		}
		if m := reFailureListEntry.FindStringSubmatch(trimmed); m != nil {
			p.add(RunRecord{
				RunID:          p.run.ID,
				TestName:       m[1],
				Outcome:        OutcomeFail,
				ErrorSignature: strings.TrimSpace(m[2]),
			})
			p.observedFails++
			return
		}
		p.inFailureList = false
	}

	// Exception line and top stack frame for a pending failure.
	if p.pending != nil {
		if m := reStackFrame.FindStringSubmatch(trimmed); m != nil {
			if p.pendingEx != "" {
				p.pending.ErrorSignature = p.pendingEx + " " + m[1]
				p.flushPending()
			}
			return
		}
		if p.pendingEx == "" {
			if m := reException.FindStringSubmatch(trimmed); m != nil {
				p.pendingEx = strings.TrimSpace(m[1])
			}
		}
	}
}

// classSummary turns a per-class surefire summary line into records. A
// fully green class yields one class-level PASS record; failing classes
// contribute only their count, since the per-test failure blocks carry
// the precise evidence.
func (p *parser) classSummary(m []string) {
	failures, _ := strconv.Atoi(m[2])
	errs, _ := strconv.Atoi(m[3])
	skipped, _ := strconv.Atoi(m[4])
	testsRun, _ := strconv.Atoi(m[1])
	class := m[6]

	p.summaryFailures += failures + errs

	if failures == 0 && errs == 0 && testsRun > 0 {
		p.add(RunRecord{
			RunID:      p.run.ID,
			TestName:   class,
			Outcome:    OutcomePass,
			DurationMs: seconds(m[5]),
		})
	}
	if skipped > 0 && testsRun == skipped {
		p.add(RunRecord{RunID: p.run.ID, TestName: class, Outcome: OutcomeSkip})
	}
}

func (p *parser) startFailure(name string, outcome Outcome, durMs int64) {
	p.flushPending()
	p.inFailureList = false
	p.pending = &RunRecord{
		RunID:      p.run.ID,
		TestName:   name,
		Outcome:    outcome,
		DurationMs: durMs,
	}
	p.observedFails++
}

func (p *parser) flushPending() {
	if p.pending == nil {
		return
	}
	p.pending.ErrorSignature = p.pendingEx
	p.add(*p.pending)
	p.pending = nil
	p.pendingEx = ""
}

// add appends a record, deduplicating on test name. Failure evidence
// always wins over a pass/skip collected for the same test.
func (p *parser) add(rec RunRecord) {
	if i, ok := p.seen[rec.TestName]; ok {
		existing := &p.run.Records[i]
		if failing(rec.Outcome) && !failing(existing.Outcome) {
			*existing = rec
		}
		return
	}
	p.seen[rec.TestName] = len(p.run.Records)
	p.run.Records = append(p.run.Records, rec)
}

func (p *parser) finish() {
	p.flushPending()
	if p.summaryFailures != p.observedFails && p.summaryFailures > 0 {
		// Counts disagree: per-test failure blocks are kept as-is, the
		// aggregate numbers are only noted. Precision over heuristics.
		p.run.SummaryMismatch = true
		logging.New("ingest").Warn("summary counts disagree with failure blocks",
			"run", p.run.ID, "summary", p.summaryFailures, "observed", p.observedFails)
	}
}

func failing(o Outcome) bool {
	return o == OutcomeFail || o == OutcomeError
}

func outcomeFromMarker(marker string) Outcome {
	if marker == "ERROR" {
		return OutcomeError
	}
	return OutcomeFail
}

func seconds(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f * 1000)
}
