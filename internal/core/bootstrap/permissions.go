package bootstrap

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// DetectPermissions probes what the process is allowed to do
func DetectPermissions(opts Options) []Evidence {
	euid := opts.Euid()
	evidence := []Evidence{
		NewEvidence(CategoryPermissions, "effective_uid", euid, 1.0, "syscall", "os.Geteuid()"),
		NewEvidence(CategoryPermissions, "is_root", euid == 0, 1.0, "syscall", "os.Geteuid() == 0"),
	}

	evidence = append(evidence, probeSocket("can_netlink_route", unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_ROUTE, "rtnetlink"))
	evidence = append(evidence, probeSocket("can_raw_socket", unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_ICMP, "ICMP raw"))

	return evidence
}

func probeSocket(prop string, domain, typ, proto int, label string) Evidence {
	fd, err := unix.Socket(domain, typ|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return NewEvidence(CategoryPermissions, prop, false, 0.90, "probe",
			"failed to create "+label+" socket: "+err.Error())
	}
	unix.Close(fd)
	return NewEvidence(CategoryPermissions, prop, true, 0.95, "probe",
		"successfully created "+label+" socket")
}

// DetectTools looks for the helper binaries some components shell out to
func DetectTools(ctx context.Context, opts Options) []Evidence {
	return []Evidence{
		probeBinary(ctx, opts, "iw", "has_iw", "--version"),
		probeBinary(ctx, opts, "nmap", "has_nmap", "--version"),
	}
}

func probeBinary(ctx context.Context, opts Options, name, prop, versionFlag string) Evidence {
	path, err := opts.LookPath(name)
	if err != nil {
		return NewEvidence(CategoryTools, prop, false, 0.95, "probe", name+" not in PATH")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, versionFlag).Output()
	if err != nil {
		return NewEvidence(CategoryTools, prop, false, 0.85, "probe",
			name+" exists but "+versionFlag+" failed: "+err.Error(),
		).WithRaw(map[string]any{"path": path})
	}

	version := strings.TrimSpace(strings.SplitN(string(output), "\n", 2)[0])
	return NewEvidence(CategoryTools, prop, true, 0.99, "probe",
		name+" "+versionFlag+" succeeded",
	).WithRaw(map[string]any{"path": path, "version": version})
}
