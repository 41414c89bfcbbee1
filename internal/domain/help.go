package domain

import "errors"

type failure struct {
	err  error
	kind string
	help string
}

// failures is ordered: the first match wins when an error wraps several kinds.
var failures = []failure{
	{ErrProviderAbsent, "ProviderAbsent", "No wallet was found. Install a browser wallet such as MetaMask and reload."},
	{ErrUserRejected, "UserRejected", "The request was declined in the wallet. Approve it in the wallet popup to continue."},
	{ErrRequestAlreadyPending, "RequestAlreadyPending", "A wallet request is already waiting for you. Open the wallet and resolve it first."},
	{ErrUnknownNetwork, "UnknownNetwork", "The wallet does not know this network yet. Add it to the wallet and try again."},
	{ErrInvalidNetworkConfig, "InvalidNetworkConfig", "The network configuration is invalid. This needs to be fixed by the operator."},
	{ErrSwitchFailed, "SwitchFailed", "The wallet could not switch networks. Please try again."},
	{ErrAddFailed, "AddFailed", "The wallet could not add the network. Please try again."},
	{ErrNoAccounts, "NoAccounts", "No account is available. Unlock the wallet and make sure it has at least one account."},
	{ErrConnectFailed, "ConnectFailed", "The wallet connection failed. Please try again."},
}

// Kind returns a stable name for the failure class of err, or "Unknown".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.kind
		}
	}
	return "Unknown"
}

// Help returns a human-readable message describing what the user can do about err.
func Help(err error) string {
	if err == nil {
		return ""
	}
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.help
		}
	}
	return "Please try again. If the problem persists, reload and reconnect the wallet."
}
