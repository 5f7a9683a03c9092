package mapreduce

import "strings"

// stopwords are English function words and shop/page chrome that say nothing
// about what a page is about.
var stopwords = func() map[string]struct{} {
	words := strings.Fields(`
		about above after again against all also although always among an and another any
		anyone anything are aren't around as at be because been before being below between
		both but by can can't cannot could couldn't did didn't do does doesn't doing don't
		done down during each either else enough etc even ever every for from further had
		hadn't has hasn't have haven't having he he's her here hers herself him himself his
		how however i'd i'll i'm i've if in into is isn't it it's its itself just less let's
		like made make many may me might more most much must my myself no nor not now of off
		often on once one only onto or other our ours ourselves out over own per perhaps
		rather same see she she's should shouldn't since so some something still such than
		that that's the their theirs them themselves then there there's therefore these they
		they're this those through thus to too toward under until up upon us use very via was
		wasn't we we're well were weren't what what's when where which while who who's whose
		why will with within without won't would wouldn't yet you you're your yours yourself

		add added account basket buy cart checkout click cookie cookies home link login
		loading menu more page privacy read share shop sign skip subscribe website
	`)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()
