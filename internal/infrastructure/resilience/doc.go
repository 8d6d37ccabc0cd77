/*
Package resilience provides circuit breakers for remote calls.

Source downloads go through a Group keyed by host, so a publisher that
keeps failing is refused quickly instead of tying up every open request
for the full retry budget.

# Usage

	group := resilience.NewGroup(resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	err := group.Do(u.Host, func() error {
		return fetch(ctx, u)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           v
	                                         Open

Settings.IsFailure lets callers count client errors such as a 404 as
successful calls; only transport failures and server errors should trip.
*/
package resilience
