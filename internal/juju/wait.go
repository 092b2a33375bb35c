package juju

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// poll fetches status every PollInterval until check reports done, check
// fails, or timeout elapses. Status errors are tolerated while polling; the
// last one is attached to the TimeoutError.
func (c *Client) poll(ctx context.Context, operation string, timeout time.Duration, check func(*Status) (bool, error)) error {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		status, err := c.Status(pollCtx)
		if err == nil {
			done, checkErr := check(status)
			if checkErr != nil {
				return checkErr
			}
			if done {
				return nil
			}
		} else if pollCtx.Err() == nil {
			lastErr = err
			c.logger.Debug("status poll failed", "operation", operation, "error", err)
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return fmt.Errorf("waiting for %s: %w", operation, ctx.Err())
			}
			if !errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
				return pollCtx.Err()
			}
			return &TimeoutError{Operation: operation, Timeout: timeout, LastErr: lastErr}
		case <-time.After(c.PollInterval):
		}
	}
}

// MachineDNSName waits until machine id reports an address and returns it.
func (c *Client) MachineDNSName(ctx context.Context, id string) (string, error) {
	var name string
	err := c.poll(ctx, fmt.Sprintf("machine %s address", id), c.Timeouts.DNS, func(s *Status) (bool, error) {
		name = s.MachineDNSName(id)
		return name != "", nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("machine address discovered", "machine", id, "address", name)
	return name, nil
}

// WaitForDeployStarted waits until at least serviceCount services are listed.
func (c *Client) WaitForDeployStarted(ctx context.Context, serviceCount int) error {
	return c.poll(ctx, fmt.Sprintf("%d services to start deploying", serviceCount), c.Timeouts.Deploy, func(s *Status) (bool, error) {
		n := s.ServiceCount()
		c.logger.Debug("services deploying", "count", n, "want", serviceCount)
		return n >= serviceCount, nil
	})
}

// WaitForStarted waits until every machine and unit agent is started. An agent
// in an error state fails the wait immediately.
func (c *Client) WaitForStarted(ctx context.Context) error {
	return c.poll(ctx, "all agents to start", c.Timeouts.Agents, func(s *Status) (bool, error) {
		return s.CheckAgentsStarted()
	})
}
