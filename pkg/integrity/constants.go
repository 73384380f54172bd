package integrity

// Default scan policy values, referenced by the policy defaults, the config
// layer, and the CLI help text.

// -----------------------------------------------------------------------------
// File selection
// -----------------------------------------------------------------------------

// DefaultExtensionsToCheck lists the path suffixes a file must carry to be
// scanned at all. Entries starting with "/" match whole basenames, which
// works because walked paths are joined from "." and always contain a
// separator before the basename.
var DefaultExtensionsToCheck = []string{
	".bat",
	".c",
	".data",
	".dsp",
	".function",
	".h",
	".md",
	".pl",
	".py",
	".sh",
	".sln",
	".vcxproj",
	"/CMakeLists.txt",
	"/ChangeLog",
	"/Makefile",
}

// DefaultExcludedDirectories are directory names pruned wherever they occur.
var DefaultExcludedDirectories = []string{".git", "mbed-os", "tinycrypt"}

// DefaultExcludedPaths are scan-root-relative paths pruned when a directory
// cleans to one of them exactly.
var DefaultExcludedPaths = []string{"cov-int", "examples"}

// DefaultRootMarkers are the subdirectories the working directory must
// contain before a scan is allowed to start.
var DefaultRootMarkers = []string{"include", "library", "tests"}

// -----------------------------------------------------------------------------
// File classification
// -----------------------------------------------------------------------------

// DefaultExecutableExtensions are the script suffixes that are expected to
// carry the executable bit. Everything else must not.
var DefaultExecutableExtensions = []string{".sh", ".pl", ".py"}

// DefaultWindowsExtensions classify a file as Windows-specific, switching it
// from the Unix to the Windows line-ending tracker.
var DefaultWindowsExtensions = []string{".bat", ".dsp", ".sln", ".vcxproj"}

// -----------------------------------------------------------------------------
// Per-tracker exemptions (suffix matches, not globs)
// -----------------------------------------------------------------------------

// DefaultBomExemptions lists suffixes exempt from the UTF-8 BOM tracker.
// Visual Studio writes BOMs into project and solution files on purpose.
var DefaultBomExemptions = []string{".vcxproj", ".sln"}

// DefaultWhitespaceExemptions lists suffixes exempt from the trailing
// whitespace tracker. Markdown uses trailing double spaces as hard breaks.
var DefaultWhitespaceExemptions = []string{".dsp", ".md"}

// DefaultTabExemptions lists suffixes exempt from the tab tracker.
// Makefile recipes require tabs.
var DefaultTabExemptions = []string{
	".sln",
	"/Makefile",
	"/generate_visualc_files.pl",
}

// -----------------------------------------------------------------------------
// Config
// -----------------------------------------------------------------------------

// DefaultConfigFile is the optional policy override file read from the scan
// root when CHECKFILES_CONFIG does not point elsewhere.
const DefaultConfigFile = ".checkfiles.json"
