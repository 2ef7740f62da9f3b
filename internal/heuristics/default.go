package heuristics

// DefaultPatterns is the built-in heuristic data for stock Android and the
// major vendor dialers. Generic terms such as "cancel", "no" and "dismiss"
// are deliberately absent: they appear on non-call dialogs too.
var DefaultPatterns = Patterns{
	Labels: []string{
		"decline",
		"reject",
		"end",
		"end call",
		"hang up",
		"✕",
		"×",
		"❌",
		"⛔",
		"🚫",
	},
	Descriptions: []string{
		"decline",
		"decline call",
		"reject",
		"reject call",
		"end call",
		"hang up",
	},
	Identifiers: []string{
		"decline",
		"reject",
		"hangup",
		"hang_up",
		"end_call",
		"call_end",
		"endcall",
	},
	ScreenPackages: []string{
		"com.android.incallui",
		"com.android.phone",
		"com.samsung.android.incallui",
		"com.google.android.dialer",
		"com.oneplus.incallui",
		"com.miui.incallui",
		"com.huawei.incallui",
		"com.oppo.incallui",
		"com.vivo.incallui",
		"com.realme.incallui",
		"com.android.dialer",
		"com.android.server.telecom",
	},
	ScreenPackageFragments: []string{
		"incallui",
		"dialer",
		"telecom",
	},
	ScreenClassFragments: []string{
		"incall",
	},
}
