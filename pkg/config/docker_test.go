package config

import "testing"

func TestResolveHostForDocker_NonLocalHosts(t *testing.T) {
	// Non-local hosts pass through regardless of where the process runs.
	for _, host := range []string{
		"analyst-db.internal",
		"192.168.1.100",
		"host.docker.internal",
	} {
		if got := ResolveHostForDocker(host); got != host {
			t.Errorf("ResolveHostForDocker(%q) = %q, want unchanged", host, got)
		}
	}
}

func TestResolveHostForDocker_Localhost(t *testing.T) {
	// Localhost is rewritten only inside a container; the test asserts
	// whichever branch matches the environment it runs in.
	for _, host := range []string{"localhost", "127.0.0.1"} {
		got := ResolveHostForDocker(host)
		if IsRunningInDocker() {
			if got != "host.docker.internal" {
				t.Errorf("ResolveHostForDocker(%q) in container = %q, want host.docker.internal", host, got)
			}
		} else if got != host {
			t.Errorf("ResolveHostForDocker(%q) = %q, want unchanged", host, got)
		}
	}
}
