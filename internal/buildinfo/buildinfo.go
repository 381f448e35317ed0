package buildinfo

const Graffiti = " _   _      _                    _    \n| |_(_) ___| |__  _ __ ___  __ _| | __\n| __| |/ _ \\ '_ \\| '__/ _ \\/ _` | |/ /\n| |_| |  __/ |_) | | |  __/ (_| |   < \n \\__|_|\\___|_.__/|_|  \\___|\\__,_|_|\\_\\\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "TIEBREAK"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
