package sqlinline

const QSelectBrandProfile = `--sql a0aed26b-eec2-4d5f-a13e-9b280336809a
select
  owner_id,
  brand_name,
  voice,
  brand_values,
  logo_url,
  website_url,
  coalesce(color_palette->>'primary', ''),
  coalesce(color_palette->>'secondary', ''),
  coalesce(color_palette->>'accent', ''),
  coalesce(typography->>'heading', ''),
  coalesce(typography->>'body', ''),
  social_links
from brand_profiles
where owner_id = $1::text
limit 1;
`

// QQueryProducts returns published products ranked by inventory then
// recency. Empty id, keyword and exclusion arrays disable those filters.
// Keywords are ILIKE patterns built by the caller.
const QQueryProducts = `--sql 313e63e3-9a4b-4327-bc58-0989e3d714f4
select
  p.id::text,
  p.title,
  p.description,
  p.category,
  p.tags,
  p.price::float8,
  p.compare_at_price::float8,
  p.inventory,
  p.published,
  p.url,
  p.updated_at,
  coalesce((
    select jsonb_agg(jsonb_build_object(
      'id', i.id::text,
      'url', i.url,
      'altText', i.alt_text,
      'position', i.position
    ) order by i.position)
    from product_images i
    where i.product_id = p.id
  ), '[]'::jsonb) as images
from products p
where p.owner_id = $1::text
  and p.published
  and (cardinality($2::text[]) = 0 or p.id::text = any($2::text[]))
  and (cardinality($3::text[]) = 0 or exists (
    select 1
    from unnest($3::text[]) as kw(pattern)
    where p.category ilike kw.pattern
       or p.description ilike kw.pattern
       or exists (select 1 from unnest(p.tags) as t(tag) where t.tag ilike kw.pattern)
  ))
  and (not $4::boolean or p.inventory > 0)
  and (not $5::boolean or exists (select 1 from product_images i where i.product_id = p.id))
  and not (p.id::text = any($6::text[]))
order by p.inventory desc, p.updated_at desc, p.id
limit $7::int;
`
