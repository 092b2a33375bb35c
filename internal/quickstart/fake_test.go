package quickstart

import (
	"context"
	"fmt"
)

// recorder collects calls across the fake client and log collector so tests
// can assert their relative order.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

// fakeClient implements Client; each method records itself and returns the
// configured error.
type fakeClient struct {
	rec  *recorder
	name string
	host string

	quickstartErr, dnsErr, deployErr, startedErr error
	statusErr, destroyErr                        error

	// onDeploy runs inside WaitForDeployStarted with the step's context.
	onDeploy func(ctx context.Context)
}

func newFakeClient(rec *recorder) *fakeClient {
	return &fakeClient{rec: rec, name: "foo", host: "mocked_name"}
}

func (f *fakeClient) EnvironmentName() string { return f.name }

func (f *fakeClient) Quickstart(_ context.Context, bundlePath string) error {
	f.rec.add("quickstart %s", bundlePath)
	return f.quickstartErr
}

func (f *fakeClient) MachineDNSName(_ context.Context, machineID string) (string, error) {
	f.rec.add("dns %s", machineID)
	if f.dnsErr != nil {
		return "", f.dnsErr
	}
	return f.host, nil
}

func (f *fakeClient) WaitForDeployStarted(ctx context.Context, serviceCount int) error {
	f.rec.add("deploy-started %d", serviceCount)
	if f.onDeploy != nil {
		f.onDeploy(ctx)
	}
	return f.deployErr
}

func (f *fakeClient) WaitForStarted(_ context.Context) error {
	f.rec.add("started")
	return f.startedErr
}

func (f *fakeClient) ReportStatus(_ context.Context) error {
	f.rec.add("status")
	return f.statusErr
}

func (f *fakeClient) DestroyEnvironment(_ context.Context, deleteJenv bool) error {
	f.rec.add("destroy delete_jenv=%t", deleteJenv)
	return f.destroyErr
}

type fakeLogs struct {
	rec *recorder
	err error
}

func (f *fakeLogs) CollectLogs(_ context.Context, host, dir string) error {
	f.rec.add("logs %s %s", host, dir)
	return f.err
}

// scriptedSequence yields the given records and then err (or exhaustion).
type scriptedSequence struct {
	records []Progress
	err     error
	calls   int
}

func (s *scriptedSequence) Next(ctx context.Context) (Progress, error) {
	s.calls++
	if len(s.records) > 0 {
		p := s.records[0]
		s.records = s.records[1:]
		return p, nil
	}
	if s.err != nil {
		err := s.err
		s.err = nil
		return Progress{}, err
	}
	return Progress{}, ErrStepsExhausted
}
