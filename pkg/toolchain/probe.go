package toolchain

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// probeProgram is the minimal translation unit used to check that a
// compiler accepts a flag combination.
const probeProgram = "#include <version>\nint main(){}"

// CompilerBuilds reports whether the compiler successfully builds a
// minimal program with the given flags. A missing or failing compiler
// is not an error; the candidate is simply unusable.
func CompilerBuilds(ctx context.Context, compiler string, flags []string) bool {
	args := append([]string{"-x", "c++", "-", "-o", "/dev/null"}, flags...)

	cmd := exec.CommandContext(ctx, compiler, args...)
	cmd.Stdin = strings.NewReader(probeProgram)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	return cmd.Run() == nil
}

// RustupWhich resolves a command within a rustup-managed toolchain.
func RustupWhich(ctx context.Context, command, toolchain string) (string, error) {
	cmd := exec.CommandContext(ctx, "rustup",
		"which", "--toolchain", toolchain, "--", command)

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("resolving %s for toolchain %s: %w",
			command, toolchain, err)
	}

	return strings.TrimRight(string(output), "\n"), nil
}
