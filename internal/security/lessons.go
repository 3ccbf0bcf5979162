package security

import "strings"

// Short educational notes attached to blocked commands so the learner
// understands why the operation was refused instead of just seeing a denial.
var lessons = map[string]string{
	"sudo": "🔒 Security lesson:\n" +
		"sudo runs a command with administrator privileges.\n" +
		"Real-world development follows the principle of least privilege.\n" +
		"→ Give programs only the permissions they actually need.",
	"curl": "🔒 Security lesson:\n" +
		"curl talks to external servers.\n" +
		"Fetching data from unknown URLs risks malware and data leaks.\n" +
		"→ Only communicate with sources you trust.",
	"wget": "🔒 Security lesson:\n" +
		"wget downloads files from the internet.\n" +
		"Downloads from untrusted sources are dangerous.\n" +
		"→ Always verify where a download comes from.",
	"pip_install": "🔒 Security lesson:\n" +
		"pip install pulls in external packages.\n" +
		"Malicious packages enable supply-chain attacks.\n" +
		"→ Pin versions in requirements.txt and vet your dependencies.",
	"npm_install": "🔒 Security lesson:\n" +
		"npm install pulls in external packages.\n" +
		"A vulnerable dependency affects the whole project.\n" +
		"→ Run npm audit and pin versions with a lock file.",
	"rm_rf": "🔒 Security lesson:\n" +
		"rm -rf deletes files without confirmation and cannot be undone.\n" +
		"→ Scope deletions narrowly and back up before removing anything.",
	"subprocess": "🔒 Security lesson:\n" +
		"subprocess runs shell commands from inside a program.\n" +
		"Passing user input straight through enables command injection.\n" +
		"→ Avoid spawning external commands; use the standard library instead.",
	"chmod": "🔒 Security lesson:\n" +
		"chmod changes file permissions.\n" +
		"Broad settings like 777 are a security risk.\n" +
		"→ Grant only the minimum permissions required.",
	"ssh": "🔒 Security lesson:\n" +
		"ssh connects to remote servers.\n" +
		"Credential handling and host trust matter here.\n" +
		"→ Use key authentication and avoid passwords.",
	"docker": "🔒 Security lesson:\n" +
		"docker manages containers and typically runs as root.\n" +
		"→ Use only trusted images and restrict container privileges.",
}

// Maps a blocked pattern fragment to its lesson key.
var patternLessons = map[string]string{
	`\bsudo\b`:         "sudo",
	`\bcurl\b`:         "curl",
	`\bwget\b`:         "wget",
	`\bpip\s+install\b`:  "pip_install",
	`\bpip3\s+install\b`: "pip_install",
	`\bnpm\s+install\b`:  "npm_install",
	`\byarn\s+add\b`:     "npm_install",
	`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|--recursive)\b`: "rm_rf",
	`\brm\s+-rf\s+/`: "rm_rf",
	`\bchmod\b`:      "chmod",
	`\bssh\b`:        "ssh",
	`\bdocker\b`:     "docker",
}

func lessonForPattern(pattern string) string {
	for fragment, key := range patternLessons {
		if strings.Contains(pattern, fragment) || strings.Contains(fragment, pattern) {
			return lessons[key]
		}
	}
	return ""
}
