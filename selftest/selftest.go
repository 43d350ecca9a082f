// Package selftest runs the published known-answer vectors for the desfire
// and lrp packages: CRC location, CMAC subkeys and tags for every cipher
// family, AN10922 diversification, EV2 session keys, IVs and MACs,
// transaction MAC keys, and the LRP tables, evaluation, stream mode, CMAC and
// session key.
//
// It is meant for a startup or diagnostic check of a build; the package tests
// cover the same vectors in more detail.
package selftest

import (
	"log/slog"

	"github.com/pkg/errors"
)

// Options controls a self test run.
type Options struct {
	// Logger receives one record per group. Nil means silent.
	Logger *slog.Logger
	// StopOnFailure ends the run at the first failing group.
	StopOnFailure bool
}

// Result is the outcome of one vector group.
type Result struct {
	Name string
	Err  error
}

// Passed reports whether every vector in the group matched.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Report lists the groups run, in order.
type Report struct {
	Results []Result
}

// Passed reports whether all groups that ran passed.
func (r Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the failing groups.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}

type group struct {
	name string
	run  func(*vectors) error
}

var groups = []group{
	{"CRC locator", checkCRC},
	{"CMAC subkeys", checkCMACSubkeys},
	{"AN10922 diversification", checkDiversification},
	{"CMAC", checkCMAC},
	{"EV2 session keys", checkEV2SessionKeys},
	{"EV2 IV", checkEV2IV},
	{"EV2 MAC", checkEV2MAC},
	{"Transaction session keys", checkTransactionKeys},
	{"LRP tables", checkLRPTables},
	{"LRP eval", checkLRPEval},
	{"LRP counter", checkLRPCounter},
	{"LRP encode", checkLRPEncode},
	{"LRP decode", checkLRPDecode},
	{"LRP subkeys", checkLRPSubkeys},
	{"LRP CMAC", checkLRPCMAC},
	{"LRP session keys", checkLRPSessionKeys},
}

// Run checks every vector group. The error is only set when the embedded
// vectors cannot be read; vector mismatches are reported in the Report.
func Run(opts Options) (Report, error) {
	v, err := loadVectors(vectorsYAML)
	if err != nil {
		return Report{}, errors.Wrap(err, "selftest")
	}
	return run(v, opts), nil
}

func run(v *vectors, opts Options) Report {
	var report Report
	for _, g := range groups {
		res := Result{Name: g.name, Err: g.run(v)}
		report.Results = append(report.Results, res)

		if opts.Logger != nil {
			if res.Passed() {
				opts.Logger.Info("selftest passed", "group", res.Name)
			} else {
				opts.Logger.Error("selftest failed", "group", res.Name, "err", res.Err)
			}
		}
		if !res.Passed() && opts.StopOnFailure {
			break
		}
	}
	return report
}
