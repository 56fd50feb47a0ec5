package console

import (
	"reflect"
	"strings"
	"testing"
)

func TestConnectCommand(t *testing.T) {
	env := newConsoleEnv(t)
	env.submit(t, "connect")

	outputs := env.linesOfKind(LineOutput)
	if len(outputs) != 1 {
		t.Fatalf("output lines = %v", outputs)
	}
	if !strings.HasPrefix(outputs[0], "Connected: 0x") || !strings.Contains(outputs[0], "chain 7701") {
		t.Fatalf("connect output = %q", outputs[0])
	}
	if s := env.provider.Active(); s == nil || !s.Connected {
		t.Fatal("no active session after connect")
	}

	// Connecting again reports the existing session instead of rotating it.
	addr := env.provider.Active().Address
	env.submit(t, "connect")
	infos := env.linesOfKind(LineInfo)
	if len(infos) != 1 || !strings.HasPrefix(infos[0], "Already connected:") {
		t.Fatalf("info lines = %v", infos)
	}
	if env.provider.Active().Address != addr {
		t.Fatal("repeat connect changed the address")
	}
}

func TestWalletGatedCommandsNeedSession(t *testing.T) {
	env := newConsoleEnv(t)
	for _, cmd := range []string{"balance", "nfts", "mint"} {
		env.submit(t, cmd)
	}

	errLines := env.linesOfKind(LineError)
	if len(errLines) != 3 {
		t.Fatalf("error lines = %v", errLines)
	}
	for _, line := range errLines {
		if line != "Wallet not connected. Run 'connect' first." {
			t.Fatalf("gate message = %q", line)
		}
	}
	if env.dev.ApproveCalls() != 0 || env.dev.ClaimCalls() != 0 {
		t.Fatal("gated mint must not reach the ledger")
	}
}

func TestBalanceCommand(t *testing.T) {
	env := newConsoleEnv(t)
	env.connect(t, 250_000_000)

	env.submit(t, "balance")
	outputs := env.linesOfKind(LineOutput)
	want := []string{"TDK: 0", "GLD: 2.5"}
	if !reflect.DeepEqual(outputs, want) {
		t.Fatalf("balance output = %v, want %v", outputs, want)
	}

	// With no intervening writes a second read is identical.
	env.submit(t, "balance")
	outputs = env.linesOfKind(LineOutput)
	if !reflect.DeepEqual(outputs, append(want, want...)) {
		t.Fatalf("repeated balance output = %v", outputs)
	}
}

func TestNftsEmptyThenMint(t *testing.T) {
	env := newConsoleEnv(t)
	env.connect(t, 100_000_000)

	env.submit(t, "nfts")
	outputs := env.linesOfKind(LineOutput)
	if len(outputs) != 1 || outputs[0] != "No NFTs owned yet. Try 'mint'." {
		t.Fatalf("empty nfts output = %v", outputs)
	}

	env.submit(t, "mint")
	if errLines := env.linesOfKind(LineError); len(errLines) != 0 {
		t.Fatalf("mint failed: %v", errLines)
	}
	outputs = env.linesOfKind(LineOutput)
	last := outputs[len(outputs)-1]
	if !strings.HasPrefix(last, "Mint confirmed: 0x") {
		t.Fatalf("mint output = %q", last)
	}

	env.submit(t, "nfts")
	outputs = env.linesOfKind(LineOutput)
	last = outputs[len(outputs)-1]
	if !strings.HasPrefix(last, "#") || !strings.Contains(last, "×1") {
		t.Fatalf("nfts output after mint = %q", last)
	}
}

func TestMintInsufficientFunds(t *testing.T) {
	env := newConsoleEnv(t)
	env.connect(t, 0)

	env.submit(t, "mint")
	errLines := env.linesOfKind(LineError)
	if len(errLines) != 1 {
		t.Fatalf("error lines = %v", errLines)
	}
	if errLines[0] != "insufficient funds: need 1 GLD, have 0 GLD" {
		t.Fatalf("message = %q", errLines[0])
	}
	if env.dev.ApproveCalls() != 0 || env.dev.ClaimCalls() != 0 {
		t.Fatal("failed precheck must not submit writes")
	}
}

func TestMintRejectedByUser(t *testing.T) {
	env := newConsoleEnv(t)
	env.connect(t, 100_000_000)
	env.dev.RejectWrites(true)

	env.submit(t, "mint")
	errLines := env.linesOfKind(LineError)
	if len(errLines) != 1 || !strings.Contains(errLines[0], "rejected") {
		t.Fatalf("error lines = %v", errLines)
	}
}

func TestMintProgressLandsAsInfo(t *testing.T) {
	env := newConsoleEnv(t)
	env.connect(t, 100_000_000)

	env.submit(t, "mint")
	infos := env.linesOfKind(LineInfo)
	if len(infos) == 0 {
		t.Fatal("mint produced no progress lines")
	}
	all := strings.Join(infos, "\n")
	for _, frag := range []string{"balance", "authorizing", "claiming"} {
		if !strings.Contains(all, frag) {
			t.Errorf("progress missing %q in %q", frag, all)
		}
	}
}
