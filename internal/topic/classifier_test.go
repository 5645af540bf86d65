package topic

import "testing"

func TestClassifierDefaults(t *testing.T) {
	t.Parallel()

	c := New(nil)

	t.Run("crypto title maps to finance topic", func(t *testing.T) {
		t.Parallel()
		if got := c.Classify("Crypto Trading Signals"); got != "Криптовалюты/Финансы" {
			t.Errorf("expected Криптовалюты/Финансы, got %s", got)
		}
	})

	t.Run("news title maps to media topic", func(t *testing.T) {
		t.Parallel()
		if got := c.Classify("Local School News"); got != "Новости/Медиа" {
			t.Errorf("expected Новости/Медиа, got %s", got)
		}
	})

	t.Run("cyrillic keyword matches", func(t *testing.T) {
		t.Parallel()
		if got := c.Classify("Бинанс для начинающих"); got != "Криптовалюты/Финансы" {
			t.Errorf("expected Криптовалюты/Финансы, got %s", got)
		}
	})

	t.Run("empty title is unclassified", func(t *testing.T) {
		t.Parallel()
		if got := c.Classify(""); got != Unclassified {
			t.Errorf("expected %s, got %s", Unclassified, got)
		}
	})

	t.Run("no keyword match is unclassified", func(t *testing.T) {
		t.Parallel()
		if got := c.Classify("Gardening for beginners"); got != Unclassified {
			t.Errorf("expected %s, got %s", Unclassified, got)
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		t.Parallel()
		if got := c.Classify("BREAKING NEWS CHANNEL"); got != "Новости/Медиа" {
			t.Errorf("expected Новости/Медиа, got %s", got)
		}
	})
}

func TestClassifierOrder(t *testing.T) {
	t.Parallel()

	t.Run("first declared topic wins ties", func(t *testing.T) {
		t.Parallel()
		rules := []Rule{
			{Topic: "first", Keywords: []string{"shared"}},
			{Topic: "second", Keywords: []string{"shared", "unique"}},
		}
		c := New(rules)
		if got := c.Classify("a shared keyword"); got != "first" {
			t.Errorf("expected first, got %s", got)
		}
		if got := c.Classify("a unique keyword"); got != "second" {
			t.Errorf("expected second, got %s", got)
		}
	})

	t.Run("news declared before education claims school news", func(t *testing.T) {
		t.Parallel()
		// "Local School News" contains keywords of both Новости/Медиа
		// ("news") and Образование ("school"); declaration order decides.
		c := New(nil)
		if got := c.Classify("Local School News"); got != "Новости/Медиа" {
			t.Errorf("expected declaration order to pick Новости/Медиа, got %s", got)
		}
	})
}

func TestClassifierWholeWord(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Topic: "tech", Keywords: []string{"it"}},
	}
	c := New(rules)

	t.Run("substring inside a word does not match", func(t *testing.T) {
		t.Parallel()
		if got := c.Classify("bitcoin digest"); got != Unclassified {
			t.Errorf("expected %s for embedded 'it', got %s", Unclassified, got)
		}
	})

	t.Run("standalone word matches", func(t *testing.T) {
		t.Parallel()
		if got := c.Classify("IT вакансии"); got != "tech" {
			t.Errorf("expected tech, got %s", got)
		}
	})
}

func TestClassifierTopics(t *testing.T) {
	t.Parallel()

	c := New(nil)
	topics := c.Topics()
	if len(topics) != 5 {
		t.Fatalf("expected 5 default topics, got %d", len(topics))
	}
	if topics[0] != "Криптовалюты/Финансы" {
		t.Errorf("expected Криптовалюты/Финансы first, got %s", topics[0])
	}
}
