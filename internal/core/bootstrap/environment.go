package bootstrap

import (
	"os"
	"runtime"
	"strings"
)

// DetectEnvironment gathers evidence about the host the service runs on
func DetectEnvironment(opts Options) []Evidence {
	evidence := []Evidence{
		NewEvidence(CategoryEnvironment, "os", runtime.GOOS, 1.0, "runtime", "runtime.GOOS"),
		NewEvidence(CategoryEnvironment, "architecture", runtime.GOARCH, 1.0, "runtime", "runtime.GOARCH"),
	}

	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		evidence = append(evidence, NewEvidence(
			CategoryEnvironment, "hostname", hostname, 0.99, "syscall", "os.Hostname()",
		))
	}

	if id := strings.TrimSpace(readFileSafe(opts.MachineIDPath)); id != "" {
		evidence = append(evidence, NewEvidence(
			CategoryEnvironment, "machine_id", id, 0.99, "filesystem", "read "+opts.MachineIDPath,
		))
	}

	evidence = append(evidence, detectContainer()...)
	return evidence
}

func detectContainer() []Evidence {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return []Evidence{NewEvidence(
			CategoryEnvironment, "containerized", true, 0.95, "filesystem", "/.dockerenv exists",
		)}
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return []Evidence{NewEvidence(
			CategoryEnvironment, "containerized", true, 0.95, "filesystem", "/run/.containerenv exists",
		)}
	}
	if cgroup := readFileSafe("/proc/1/cgroup"); cgroup != "" {
		for _, marker := range []string{"docker", "kubepods", "containerd", "libpod", "lxc"} {
			if strings.Contains(cgroup, marker) {
				return []Evidence{NewEvidence(
					CategoryEnvironment, "containerized", true, 0.85, "procfs",
					"/proc/1/cgroup contains '"+marker+"'",
				)}
			}
		}
	}
	return []Evidence{NewEvidence(
		CategoryEnvironment, "containerized", false, 0.70, "filesystem", "no container markers found",
	)}
}

func readFileSafe(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
